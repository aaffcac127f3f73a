package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/internal/utils"
	"github.com/projectflow/backend/pkg/response"
	"gorm.io/gorm"
)

// UserService is the superuser-only account administration.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UserListRequest struct {
	Search string `form:"search"`
	Active *bool  `form:"is_active"`
}

type CreateUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	FullName    string `json:"full_name" binding:"max=200"`
	Password    string `json:"password" binding:"required,min=8"`
	IsSuperuser bool   `json:"is_superuser"`
}

type UpdatePrivilegesRequest struct {
	IsSuperuser *bool `json:"is_superuser"`
	IsActive    *bool `json:"is_active"`
}

func (s *UserService) List(ctx context.Context, req *UserListRequest) ([]models.User, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if req != nil {
		if req.Search != "" {
			like := "%" + strings.ToLower(req.Search) + "%"
			query = query.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like)
		}
		if req.Active != nil {
			query = query.Where("is_active = ?", *req.Active)
		}
	}

	var users []models.User
	if err := query.Order("email ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create adds a local account.
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, response.NewConflict("a user with this email already exists")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:              email,
		FullName:           strings.TrimSpace(req.FullName),
		HashedPassword:     hashed,
		AuthType:           models.AuthTypeLocal,
		IsSuperuser:        req.IsSuperuser,
		IsActive:           true,
		NotifyOnAssignment: true,
		NotifyOnProposal:   true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePrivileges toggles the superuser and active flags of an account.
func (s *UserService) UpdatePrivileges(ctx context.Context, actor *models.User, userID uuid.UUID, req *UpdatePrivilegesRequest) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return notFoundOr(err, "user not found")
		}

		self := actor.ID == user.ID
		updates := map[string]interface{}{}
		if req.IsSuperuser != nil && *req.IsSuperuser != user.IsSuperuser {
			if self && !*req.IsSuperuser {
				return response.NewBadRequest("admins cannot remove their own superuser status")
			}
			if *req.IsSuperuser {
				if err := checkNoAssignments(tx, user.ID); err != nil {
					return err
				}
			}
			updates["is_superuser"] = *req.IsSuperuser
			user.IsSuperuser = *req.IsSuperuser
		}
		if req.IsActive != nil && *req.IsActive != user.IsActive {
			if self && !*req.IsActive {
				return response.NewBadRequest("admins cannot deactivate their own account")
			}
			updates["is_active"] = *req.IsActive
			user.IsActive = *req.IsActive
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// normalizeEmail is the stored form of an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkNoAssignments rejects a user who holds or has requested an issue.
func checkNoAssignments(tx *gorm.DB, userID uuid.UUID) error {
	var count int64
	err := tx.Model(&models.Issue{}).
		Where("assignee_id = ? OR assignee_request_id = ?", userID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return response.NewConflict("user is assigned to or has requested issues; reassign them before granting superuser")
	}
	return nil
}
