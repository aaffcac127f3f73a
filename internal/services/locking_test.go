package services

import (
	"context"
	"sync"
	"testing"

	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// lockedTables records the tables queried with a FOR UPDATE clause. SQLite
// drops the clause when rendering SQL, so the statement clauses are checked.
func lockedTables(t *testing.T, db *gorm.DB) func() []string {
	t.Helper()
	var (
		mu     sync.Mutex
		tables []string
	)
	err := db.Callback().Query().Before("gorm:query").Register("test:locked_tables", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Clauses["FOR"]; ok {
			mu.Lock()
			tables = append(tables, tx.Statement.Table)
			mu.Unlock()
		}
	})
	require.NoError(t, err)
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		out := tables
		tables = nil
		return out
	}
}

func TestMemberService_LocksProjectRow(t *testing.T) {
	f := newFixture(t)
	svc := NewMemberService(f.db, f.events)
	ctx := context.Background()
	locked := lockedTables(t, f.db)

	newcomer := testutil.CreateUser(t, f.db, "newcomer@example.com")
	_, err := svc.Assign(ctx, f.superuser, f.project.ID, &AssignMemberRequest{Email: newcomer.Email, Role: models.RoleProjectLead})
	require.NoError(t, err)
	assert.Equal(t, []string{"projects"}, locked())

	_, err = svc.UpdateRole(ctx, f.superuser, f.project.ID, f.member.ID, &UpdateMemberRoleRequest{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, []string{"projects"}, locked())

	require.NoError(t, svc.Remove(ctx, f.superuser, f.project.ID, f.other.ID))
	assert.Equal(t, []string{"projects"}, locked())
	assert.EqualValues(t, 1, countLeadsOf(t, f.db, f.project))
}

func TestIssueService_TransitionsLockIssueRow(t *testing.T) {
	f := newFixture(t)
	svc := NewIssueService(f.db, f.events)
	ctx := context.Background()
	locked := lockedTables(t, f.db)

	proposal := testutil.CreateIssue(t, f.db, f.project.ID, f.member.ID, models.StatusProposed)
	_, err := svc.ApproveProposal(ctx, f.lead, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"issues"}, locked())

	_, err = svc.RequestAssignment(ctx, f.member, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"issues"}, locked())

	_, err = svc.ApproveAssignment(ctx, f.lead, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"issues"}, locked())
}
