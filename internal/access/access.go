// Package access resolves a user's effective role inside a project and
// gates workflow actions on it.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/pkg/response"
	"gorm.io/gorm"
)

// Source tells where an effective role came from.
type Source int

const (
	SourceNone Source = iota
	SourceMembership
	SourceSuperuser
)

// EffectiveRole is the outcome of role resolution. Membership is set only
// when Source is SourceMembership; superusers get a synthesized admin
// without a persisted row.
type EffectiveRole struct {
	Source     Source
	Membership *models.ProjectMember
	UserID     uuid.UUID
	ProjectID  uuid.UUID
}

// Role returns ADMIN for superusers, the membership role for members and
// an empty role otherwise.
func (r EffectiveRole) Role() models.ProjectRole {
	switch r.Source {
	case SourceSuperuser:
		return models.RoleAdmin
	case SourceMembership:
		return r.Membership.Role
	}
	return ""
}

func (r EffectiveRole) IsMember() bool {
	return r.Source != SourceNone
}

// IsManager reports whether the role may approve, reject and manage members.
func (r EffectiveRole) IsManager() bool {
	role := r.Role()
	return role == models.RoleAdmin || role == models.RoleProjectLead
}

// Require checks role against the allowed set. Superusers and ADMIN
// memberships always pass.
func Require(role EffectiveRole, allowed ...models.ProjectRole) error {
	switch role.Source {
	case SourceSuperuser:
		return nil
	case SourceNone:
		return response.NewForbidden("not a member of this project")
	}

	if role.Membership.Role == models.RoleAdmin {
		return nil
	}
	for _, r := range allowed {
		if role.Membership.Role == r {
			return nil
		}
	}
	return response.NewForbiddenf("user role '%s' is not authorized for this action", role.Membership.Role)
}

// Managers is the role set for lead-or-better actions.
var Managers = []models.ProjectRole{models.RoleAdmin, models.RoleProjectLead}

// AnyMember is the role set for any project member.
var AnyMember = []models.ProjectRole{models.RoleAdmin, models.RoleProjectLead, models.RoleMember}

// ForProject resolves user's role in projectID. Unknown projects are NotFound.
func ForProject(ctx context.Context, db *gorm.DB, user *models.User, projectID uuid.UUID) (EffectiveRole, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return EffectiveRole{}, err
	}
	if count == 0 {
		return EffectiveRole{}, response.NewNotFound("project not found")
	}
	return resolve(ctx, db, user, projectID)
}

// ForIssue resolves user's role in the project owning issueID.
func ForIssue(ctx context.Context, db *gorm.DB, user *models.User, issueID uuid.UUID) (EffectiveRole, *models.Issue, error) {
	var issue models.Issue
	if err := db.WithContext(ctx).Where("id = ?", issueID).First(&issue).Error; err != nil {
		return EffectiveRole{}, nil, notFound(err, "issue not found")
	}
	role, err := resolve(ctx, db, user, issue.ProjectID)
	if err != nil {
		return EffectiveRole{}, nil, err
	}
	return role, &issue, nil
}

// ForPhase resolves user's role in the project owning phaseID.
func ForPhase(ctx context.Context, db *gorm.DB, user *models.User, phaseID uuid.UUID) (EffectiveRole, *models.Phase, error) {
	var phase models.Phase
	if err := db.WithContext(ctx).Where("id = ?", phaseID).First(&phase).Error; err != nil {
		return EffectiveRole{}, nil, notFound(err, "phase not found")
	}
	role, err := resolve(ctx, db, user, phase.ProjectID)
	if err != nil {
		return EffectiveRole{}, nil, err
	}
	return role, &phase, nil
}

func resolve(ctx context.Context, db *gorm.DB, user *models.User, projectID uuid.UUID) (EffectiveRole, error) {
	role := EffectiveRole{UserID: user.ID, ProjectID: projectID}
	if user.IsSuperuser {
		role.Source = SourceSuperuser
		return role, nil
	}

	var member models.ProjectMember
	err := db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, user.ID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return role, nil
	}
	if err != nil {
		return EffectiveRole{}, fmt.Errorf("resolve membership: %w", err)
	}

	role.Source = SourceMembership
	role.Membership = &member
	return role, nil
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFound(msg)
	}
	return err
}
