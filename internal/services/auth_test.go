package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/projectflow/backend/internal/config"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/internal/testutil"
	"github.com/projectflow/backend/internal/utils"
	"github.com/projectflow/backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubDirectory accepts one email/password pair.
type stubDirectory struct {
	enabled  bool
	email    string
	password string
	calls    int
}

func (d *stubDirectory) Enabled() bool { return d.enabled }

func (d *stubDirectory) Authenticate(email, password string) (*LDAPUser, error) {
	d.calls++
	if email != d.email || password != d.password {
		return nil, errLDAPCredentials
	}
	return &LDAPUser{DN: "uid=grace,dc=example,dc=com", Email: email, FullName: "Grace Hopper"}, nil
}

func newAuthService(t *testing.T, db *gorm.DB, dir Directory) *AuthService {
	t.Helper()
	issuer, err := utils.NewTokenIssuer(&config.JWTConfig{Secret: "test-secret", Algorithm: "HS256", ExpireMinutes: 30})
	require.NoError(t, err)
	return NewAuthService(db, issuer, dir)
}

func createLocalUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()
	user := testutil.CreateUser(t, db, email)
	hashed, err := utils.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("hashed_password", hashed).Error)
	user.HashedPassword = hashed
	return user
}

func TestAuthService_LoginLocal(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newAuthService(t, db, nil)
	ctx := context.Background()
	createLocalUser(t, db, "ada@example.com", "correct-horse")

	resp, err := svc.Login(ctx, &LoginRequest{Email: "ADA@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User.LastLogin)

	user, err := svc.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "wrong"})
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "x"})
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestAuthService_InactiveUser(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newAuthService(t, db, nil)
	ctx := context.Background()
	user := createLocalUser(t, db, "ada@example.com", "correct-horse")

	resp, err := svc.Login(ctx, &LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err = svc.Login(ctx, &LoginRequest{Email: user.Email, Password: "correct-horse"})
	requireStatus(t, err, http.StatusForbidden)

	_, err = svc.Authenticate(ctx, resp.AccessToken)
	requireStatus(t, err, http.StatusForbidden)
}

func TestAuthService_AuthenticateInvalidToken(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newAuthService(t, db, nil)

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	requireStatus(t, err, http.StatusUnauthorized)

	other, err := utils.NewTokenIssuer(&config.JWTConfig{Secret: "other-secret"})
	require.NoError(t, err)
	token, _, err := other.GenerateToken("ghost@example.com")
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), token)
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestAuthService_LoginLDAPProvisions(t *testing.T) {
	db := testutil.NewDB(t)
	dir := &stubDirectory{enabled: true, email: "grace@example.com", password: "cobol"}
	svc := newAuthService(t, db, dir)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &LoginRequest{Email: "grace@example.com", Password: "cobol"})
	require.NoError(t, err)
	assert.Equal(t, models.AuthTypeLDAP, resp.User.AuthType)
	assert.Equal(t, "Grace Hopper", resp.User.FullName)
	assert.True(t, resp.User.IsActive)

	_, err = svc.Login(ctx, &LoginRequest{Email: "grace@example.com", Password: "cobol"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "grace@example.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = svc.Login(ctx, &LoginRequest{Email: "grace@example.com", Password: "fortran"})
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestAuthService_LDAPNameSyncFailureIsLogged(t *testing.T) {
	db := testutil.NewDB(t)
	dir := &stubDirectory{enabled: true, email: "grace@example.com", password: "cobol"}
	svc := newAuthService(t, db, dir)
	ctx := context.Background()

	_, err := svc.Login(ctx, &LoginRequest{Email: "grace@example.com", Password: "cobol"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "grace@example.com").Update("full_name", "G. Hopper").Error)

	var logs bytes.Buffer
	logger.SetOutput(&logs, zerolog.WarnLevel)
	t.Cleanup(func() { logger.Init("info") })
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_updates", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("disk full"))
	}))

	resp, err := svc.Login(ctx, &LoginRequest{Email: "grace@example.com", Password: "cobol"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", resp.User.FullName)
	assert.Contains(t, logs.String(), "failed to sync LDAP full name")
	assert.Contains(t, logs.String(), "disk full")
}

func TestAuthService_LocalUsersSkipDirectory(t *testing.T) {
	db := testutil.NewDB(t)
	dir := &stubDirectory{enabled: true, email: "ada@example.com", password: "ldap-pass"}
	svc := newAuthService(t, db, dir)
	createLocalUser(t, db, "ada@example.com", "local-pass")

	_, err := svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "ldap-pass"})
	requireStatus(t, err, http.StatusUnauthorized)
	assert.Zero(t, dir.calls)
}

func TestAuthService_UpdateMe(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newAuthService(t, db, nil)
	user := testutil.CreateUser(t, db, "ada@example.com")

	updated, err := svc.UpdateMe(context.Background(), user, &UpdateMeRequest{
		FullName:         ptr(" Ada Lovelace "),
		NotifyOnProposal: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.FullName)
	assert.False(t, updated.NotifyOnProposal)
	assert.True(t, updated.NotifyOnAssignment)
}

func TestAuthService_ChangePassword(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newAuthService(t, db, nil)
	ctx := context.Background()
	user := createLocalUser(t, db, "ada@example.com", "old-password")

	err := svc.ChangePassword(ctx, user, &ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "new-password"})
	requireStatus(t, err, http.StatusBadRequest)

	require.NoError(t, svc.ChangePassword(ctx, user, &ChangePasswordRequest{CurrentPassword: "old-password", NewPassword: "new-password"}))

	_, err = svc.Login(ctx, &LoginRequest{Email: user.Email, Password: "new-password"})
	require.NoError(t, err)
}

func TestEnsureSuperuser(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	cfg := &config.AdminConfig{Email: "Admin@Example.com", Password: "admin@123"}

	user, created, err := EnsureSuperuser(ctx, db, cfg)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, user.IsSuperuser)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.Equal(t, "Administrator", user.FullName)

	again, created, err := EnsureSuperuser(ctx, db, cfg)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	_, _, err = EnsureSuperuser(ctx, db, &config.AdminConfig{})
	require.Error(t, err)
}

func TestLDAPService_Disabled(t *testing.T) {
	svc := NewLDAPService(&config.LDAPConfig{Enabled: false})
	assert.False(t, svc.Enabled())

	_, err := svc.Authenticate("a@example.com", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errLDAPCredentials))
}
