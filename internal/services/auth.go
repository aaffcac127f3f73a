package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/config"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/internal/utils"
	"github.com/projectflow/backend/pkg/logger"
	"github.com/projectflow/backend/pkg/response"
	"gorm.io/gorm"
)

var errBadCredentials = response.NewUnauthorized("incorrect email or password")

// AuthService exchanges credentials for bearer tokens and resolves tokens
// back to active users.
type AuthService struct {
	db        *gorm.DB
	tokens    *utils.TokenIssuer
	directory Directory
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenIssuer, directory Directory) *AuthService {
	return &AuthService{db: db, tokens: tokens, directory: directory}
}

type LoginRequest struct {
	Email    string `json:"email" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

type UpdateMeRequest struct {
	FullName           *string `json:"full_name" binding:"omitempty,max=200"`
	NotifyOnAssignment *bool   `json:"notify_on_assignment"`
	NotifyOnProposal   *bool   `json:"notify_on_proposal"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// Login verifies the credentials and issues a token. Local accounts are
// checked with bcrypt; everything else goes to the directory when enabled.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	email := normalizeEmail(req.Email)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil && user.AuthType == models.AuthTypeLocal:
		if !utils.CheckPassword(req.Password, user.HashedPassword) {
			return nil, errBadCredentials
		}
	case err == nil || errors.Is(err, gorm.ErrRecordNotFound):
		u, derr := s.directoryAuth(ctx, email, req.Password)
		if derr != nil {
			return nil, derr
		}
		user = *u
	default:
		return nil, err
	}

	if !user.IsActive {
		return nil, response.NewForbidden("user account is inactive")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		logger.Warn().Err(err).Str("email", user.Email).Msg("failed to record last login")
	}

	return &TokenResponse{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt, User: &user}, nil
}

// directoryAuth verifies against LDAP and provisions the account on first
// login.
func (s *AuthService) directoryAuth(ctx context.Context, email, password string) (*models.User, error) {
	if s.directory == nil || !s.directory.Enabled() {
		return nil, errBadCredentials
	}
	entry, err := s.directory.Authenticate(email, password)
	if err != nil {
		if !errors.Is(err, errLDAPCredentials) {
			logger.Warn().Err(err).Str("email", email).Msg("LDAP authentication failed")
		}
		return nil, errBadCredentials
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Email:              email,
			FullName:           entry.FullName,
			AuthType:           models.AuthTypeLDAP,
			IsActive:           true,
			NotifyOnAssignment: true,
			NotifyOnProposal:   true,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		logger.Info().Str("email", email).Msg("provisioned LDAP user")
		return &user, nil
	}
	if err != nil {
		return nil, err
	}
	if user.AuthType != models.AuthTypeLDAP {
		return nil, errBadCredentials
	}
	if entry.FullName != "" && entry.FullName != user.FullName {
		user.FullName = entry.FullName
		if err := s.db.WithContext(ctx).Model(&user).Update("full_name", entry.FullName).Error; err != nil {
			logger.Warn().Err(err).Str("email", email).Msg("failed to sync LDAP full name")
		}
	}
	return &user, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, response.NewUnauthorized("could not validate credentials")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", claims.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("could not validate credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, response.NewForbidden("user account is inactive")
	}
	return &user, nil
}

// UpdateMe edits the caller's own profile and notification preferences.
func (s *AuthService) UpdateMe(ctx context.Context, actor *models.User, req *UpdateMeRequest) (*models.User, error) {
	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.NotifyOnAssignment != nil {
		updates["notify_on_assignment"] = *req.NotifyOnAssignment
	}
	if req.NotifyOnProposal != nil {
		updates["notify_on_proposal"] = *req.NotifyOnProposal
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", actor.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.GetUser(ctx, actor.ID)
}

// ChangePassword replaces a local account's password after checking the
// current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *models.User, req *ChangePasswordRequest) error {
	user, err := s.GetUser(ctx, actor.ID)
	if err != nil {
		return err
	}
	if user.AuthType != models.AuthTypeLocal {
		return response.NewBadRequest("LDAP users cannot change their password here")
	}
	if !utils.CheckPassword(req.CurrentPassword, user.HashedPassword) {
		return response.NewBadRequest("incorrect current password")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("hashed_password", hashed).Error
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	return &user, nil
}

// EnsureSuperuser creates the configured admin account unless a user with
// that email already exists.
func EnsureSuperuser(ctx context.Context, db *gorm.DB, cfg *config.AdminConfig) (*models.User, bool, error) {
	email := normalizeEmail(cfg.Email)
	if email == "" || cfg.Password == "" {
		return nil, false, errors.New("admin email and password are required")
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hashed, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return nil, false, err
	}
	fullName := cfg.FullName
	if fullName == "" {
		fullName = "Administrator"
	}
	user := models.User{
		Email:              email,
		FullName:           fullName,
		HashedPassword:     hashed,
		AuthType:           models.AuthTypeLocal,
		IsSuperuser:        true,
		IsActive:           true,
		NotifyOnAssignment: true,
		NotifyOnProposal:   true,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}
