// Package testutil builds in-memory databases and fixtures for tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:              email,
		FullName:           email,
		AuthType:           models.AuthTypeLocal,
		IsActive:           true,
		NotifyOnAssignment: true,
		NotifyOnProposal:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateSuperuser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := CreateUser(t, db, email)
	user.IsSuperuser = true
	require.NoError(t, db.Save(user).Error)
	return user
}

func CreateProject(t *testing.T, db *gorm.DB, name, key string) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, Key: key}
	require.NoError(t, db.Create(project).Error)
	return project
}

func AddMember(t *testing.T, db *gorm.DB, projectID, userID uuid.UUID, role models.ProjectRole) *models.ProjectMember {
	t.Helper()
	member := &models.ProjectMember{ProjectID: projectID, UserID: userID, Role: role}
	require.NoError(t, db.Create(member).Error)
	return member
}

func CreatePhase(t *testing.T, db *gorm.DB, projectID uuid.UUID, name string, order int, status models.PhaseStatus) *models.Phase {
	t.Helper()
	phase := &models.Phase{ProjectID: projectID, Name: name, Order: order, Status: status}
	require.NoError(t, db.Create(phase).Error)
	return phase
}

// IssueOption tweaks a fixture issue before insert.
type IssueOption func(*models.Issue)

func WithPhase(phaseID uuid.UUID) IssueOption {
	return func(i *models.Issue) { i.PhaseID = &phaseID }
}

func WithAssignee(userID uuid.UUID) IssueOption {
	return func(i *models.Issue) { i.AssigneeID = &userID }
}

func CreateIssue(t *testing.T, db *gorm.DB, projectID, reporterID uuid.UUID, status models.IssueStatus, opts ...IssueOption) *models.Issue {
	t.Helper()
	issue := &models.Issue{
		Title:      "issue " + uuid.NewString()[:8],
		Status:     status,
		Priority:   models.PriorityMedium,
		IssueType:  models.TypeTask,
		ProjectID:  projectID,
		ReporterID: reporterID,
	}
	for _, opt := range opts {
		opt(issue)
	}
	require.NoError(t, db.Create(issue).Error)
	return issue
}
