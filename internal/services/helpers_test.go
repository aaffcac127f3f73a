package services

import (
	"context"
	"sync"
	"testing"

	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/internal/testutil"
	"github.com/projectflow/backend/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// eventSink collects events delivered through an inline queue.
type eventSink struct {
	mu     sync.Mutex
	events []WorkflowEvent
}

func (s *eventSink) process(_ context.Context, event *WorkflowEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *eventSink) ofType(t EventType) []WorkflowEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []WorkflowEvent
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newPublisher(db *gorm.DB) (*EventPublisher, *eventSink) {
	sink := &eventSink{}
	queue := NewSyncQueue()
	queue.SetProcessor(sink.process)
	return NewEventPublisher(db, queue), sink
}

// fixture is a project with an admin superuser, a lead and two members.
type fixture struct {
	db        *gorm.DB
	sink      *eventSink
	events    *EventPublisher
	superuser *models.User
	lead      *models.User
	member    *models.User
	other     *models.User
	project   *models.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	events, sink := newPublisher(db)

	f := &fixture{
		db:        db,
		sink:      sink,
		events:    events,
		superuser: testutil.CreateSuperuser(t, db, "root@example.com"),
		lead:      testutil.CreateUser(t, db, "lead@example.com"),
		member:    testutil.CreateUser(t, db, "member@example.com"),
		other:     testutil.CreateUser(t, db, "other@example.com"),
		project:   testutil.CreateProject(t, db, "Apollo", "APL"),
	}
	testutil.AddMember(t, db, f.project.ID, f.lead.ID, models.RoleProjectLead)
	testutil.AddMember(t, db, f.project.ID, f.member.ID, models.RoleMember)
	testutil.AddMember(t, db, f.project.ID, f.other.ID, models.RoleMember)
	return f
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, response.StatusOf(err), "unexpected error: %v", err)
}

func countLeadsOf(t *testing.T, db *gorm.DB, project *models.Project) int64 {
	t.Helper()
	n, err := countLeads(db, project.ID)
	require.NoError(t, err)
	return n
}

func roleOf(t *testing.T, db *gorm.DB, project *models.Project, user *models.User) models.ProjectRole {
	t.Helper()
	var m models.ProjectMember
	require.NoError(t, db.Where("project_id = ? AND user_id = ?", project.ID, user.ID).First(&m).Error)
	return m.Role
}

func ptr[T any](v T) *T {
	return &v
}
