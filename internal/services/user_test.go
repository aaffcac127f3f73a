package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/internal/testutil"
	"github.com/projectflow/backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Create(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.Create(ctx, &CreateUserRequest{Email: " Ada@Example.com ", FullName: "Ada", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSuperuser)
	assert.True(t, utils.CheckPassword("password1", user.HashedPassword))

	_, err = svc.Create(ctx, &CreateUserRequest{Email: "ada@example.com", Password: "password2"})
	requireStatus(t, err, http.StatusConflict)
}

func TestUserService_List(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(db)
	testutil.CreateUser(t, db, "b@example.com")
	testutil.CreateUser(t, db, "a@example.com")
	inactive := testutil.CreateUser(t, db, "c@example.com")
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	users, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a@example.com", users[0].Email)

	users, err = svc.List(context.Background(), &UserListRequest{Active: ptr(false)})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, inactive.ID, users[0].ID)

	users, err = svc.List(context.Background(), &UserListRequest{Search: "B@"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_UpdatePrivileges(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db)
	ctx := context.Background()

	_, err := svc.UpdatePrivileges(ctx, f.superuser, f.superuser.ID, &UpdatePrivilegesRequest{IsSuperuser: ptr(false)})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.UpdatePrivileges(ctx, f.superuser, f.superuser.ID, &UpdatePrivilegesRequest{IsActive: ptr(false)})
	requireStatus(t, err, http.StatusBadRequest)

	updated, err := svc.UpdatePrivileges(ctx, f.superuser, f.other.ID, &UpdatePrivilegesRequest{IsSuperuser: ptr(true), IsActive: ptr(false)})
	require.NoError(t, err)
	assert.True(t, updated.IsSuperuser)
	assert.False(t, updated.IsActive)

	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, "id = ?", f.other.ID).Error)
	assert.True(t, reloaded.IsSuperuser)
	assert.False(t, reloaded.IsActive)
}

func TestUserService_GrantSuperuserToAssignee(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db)
	ctx := context.Background()

	testutil.CreateIssue(t, f.db, f.project.ID, f.lead.ID, models.StatusTodo, testutil.WithAssignee(f.member.ID))
	_, err := svc.UpdatePrivileges(ctx, f.superuser, f.member.ID, &UpdatePrivilegesRequest{IsSuperuser: ptr(true)})
	requireStatus(t, err, http.StatusConflict)

	requested := testutil.CreateIssue(t, f.db, f.project.ID, f.lead.ID, models.StatusTodo)
	require.NoError(t, f.db.Model(requested).Update("assignee_request_id", f.other.ID).Error)
	_, err = svc.UpdatePrivileges(ctx, f.superuser, f.other.ID, &UpdatePrivilegesRequest{IsSuperuser: ptr(true)})
	requireStatus(t, err, http.StatusConflict)
}
