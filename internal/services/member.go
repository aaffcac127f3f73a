package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/access"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberService guards project membership so that a project with members
// always has exactly one PROJECT_LEAD.
type MemberService struct {
	db     *gorm.DB
	events *EventPublisher
}

func NewMemberService(db *gorm.DB, events *EventPublisher) *MemberService {
	return &MemberService{db: db, events: events}
}

type AssignMemberRequest struct {
	Email string             `json:"email" binding:"required,email"`
	Role  models.ProjectRole `json:"role" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role models.ProjectRole `json:"role" binding:"required"`
}

// List returns the project's members with their users, leads first.
func (s *MemberService) List(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]models.ProjectMember, error) {
	role, err := access.ForProject(ctx, s.db, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(role, access.AnyMember...); err != nil {
		return nil, err
	}

	var members []models.ProjectMember
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	sortMembers(members)
	return members, nil
}

// Assign adds the user with the given email to the project. Assigning
// PROJECT_LEAD demotes the current lead in the same transaction.
func (s *MemberService) Assign(ctx context.Context, actor *models.User, projectID uuid.UUID, req *AssignMemberRequest) (*models.ProjectMember, error) {
	if !req.Role.Valid() {
		return nil, response.NewBadRequestf("invalid role %q", req.Role)
	}

	var (
		member     models.ProjectMember
		demotedIDs []uuid.UUID
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := access.ForProject(ctx, tx, actor, projectID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.Managers...); err != nil {
			return err
		}
		if err := lockProject(tx, projectID); err != nil {
			return err
		}
		if role.Role() == models.RoleProjectLead && req.Role != models.RoleMember {
			return response.NewForbidden("project leads can only add members with the MEMBER role")
		}

		var user models.User
		if err := tx.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
			return notFoundOr(err, "user not found")
		}

		var existing int64
		if err := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", projectID, user.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return response.NewConflict("user is already a member of this project")
		}

		if req.Role == models.RoleProjectLead {
			if demotedIDs, err = demoteLeads(tx, projectID, user.ID); err != nil {
				return err
			}
		} else {
			leads, err := countLeads(tx, projectID)
			if err != nil {
				return err
			}
			if leads == 0 {
				return response.NewConflict("project has no Project Lead; assign a lead first")
			}
		}

		member = models.ProjectMember{ProjectID: projectID, UserID: user.ID, Role: req.Role}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		member.User = &user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, WorkflowEvent{
		Type: EventMemberAdded, ProjectID: projectID, ActorID: actor.ID, Role: string(member.Role),
	}, member.UserID)
	s.publishDemotions(ctx, actor, projectID, demotedIDs)
	return &member, nil
}

// UpdateRole changes a member's role. Only ADMIN may do this.
func (s *MemberService) UpdateRole(ctx context.Context, actor *models.User, projectID, userID uuid.UUID, req *UpdateMemberRoleRequest) (*models.ProjectMember, error) {
	if !req.Role.Valid() {
		return nil, response.NewBadRequestf("invalid role %q", req.Role)
	}

	var (
		member     models.ProjectMember
		changed    bool
		demotedIDs []uuid.UUID
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := access.ForProject(ctx, tx, actor, projectID)
		if err != nil {
			return err
		}
		if err := access.Require(role, models.RoleAdmin); err != nil {
			return err
		}
		if err := lockProject(tx, projectID); err != nil {
			return err
		}

		if err := tx.Preload("User").
			Where("project_id = ? AND user_id = ?", projectID, userID).
			First(&member).Error; err != nil {
			return notFoundOr(err, "member not found")
		}
		if member.Role == req.Role {
			return nil
		}

		switch {
		case req.Role == models.RoleProjectLead:
			if demotedIDs, err = demoteLeads(tx, projectID, userID); err != nil {
				return err
			}
		case member.Role == models.RoleProjectLead:
			return errLastLeadDemote
		}

		member.Role = req.Role
		changed = true
		return tx.Model(&member).Update("role", req.Role).Error
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.events.Publish(ctx, WorkflowEvent{
			Type: EventMemberRoleChanged, ProjectID: projectID, ActorID: actor.ID, Role: string(member.Role),
		}, member.UserID)
		s.publishDemotions(ctx, actor, projectID, demotedIDs)
	}
	return &member, nil
}

// Remove deletes a membership. The lead can only leave when they are the
// last member of the project.
func (s *MemberService) Remove(ctx context.Context, actor *models.User, projectID, userID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := access.ForProject(ctx, tx, actor, projectID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.Managers...); err != nil {
			return err
		}
		if err := lockProject(tx, projectID); err != nil {
			return err
		}

		var member models.ProjectMember
		if err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error; err != nil {
			return notFoundOr(err, "member not found")
		}
		if role.Role() == models.RoleProjectLead && member.Role == models.RoleAdmin {
			return response.NewForbidden("project leads cannot remove project admins")
		}

		if member.Role == models.RoleProjectLead {
			var others int64
			if err := tx.Model(&models.ProjectMember{}).
				Where("project_id = ? AND user_id <> ?", projectID, userID).
				Count(&others).Error; err != nil {
				return err
			}
			if others > 0 {
				return errLastLeadRemove
			}
		}

		// pending claims belong to members only
		if err := tx.Model(&models.Issue{}).
			Where("project_id = ? AND assignee_request_id = ?", projectID, userID).
			Update("assignee_request_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&member).Error
	})
	if err != nil {
		return err
	}

	s.events.Publish(ctx, WorkflowEvent{Type: EventMemberRemoved, ProjectID: projectID, ActorID: actor.ID}, userID)
	return nil
}

func (s *MemberService) publishDemotions(ctx context.Context, actor *models.User, projectID uuid.UUID, ids []uuid.UUID) {
	for _, id := range ids {
		s.events.Publish(ctx, WorkflowEvent{
			Type: EventMemberRoleChanged, ProjectID: projectID, ActorID: actor.ID, Role: string(models.RoleMember),
		}, id)
	}
}

// demoteLeads turns every PROJECT_LEAD other than keep into a MEMBER and
// returns the demoted user ids.
// lockProject takes a row lock on the project so membership changes on the
// same project run one at a time. SQLite ignores the clause and serializes
// writers on its own.
func lockProject(tx *gorm.DB, projectID uuid.UUID) error {
	var project models.Project
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", projectID).
		First(&project).Error
	return notFoundOr(err, "project not found")
}

func demoteLeads(tx *gorm.DB, projectID, keep uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := tx.Model(&models.ProjectMember{}).
		Where("project_id = ? AND role = ? AND user_id <> ?", projectID, models.RoleProjectLead, keep).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	err := tx.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id IN ?", projectID, ids).
		Update("role", models.RoleMember).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func countLeads(tx *gorm.DB, projectID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&models.ProjectMember{}).
		Where("project_id = ? AND role = ?", projectID, models.RoleProjectLead).
		Count(&n).Error
	return n, err
}

// projectLead returns the lead membership of a project, or nil.
func projectLead(members []models.ProjectMember) *models.ProjectMember {
	for i := range members {
		if members[i].Role == models.RoleProjectLead {
			return &members[i]
		}
	}
	return nil
}

var roleRank = map[models.ProjectRole]int{
	models.RoleProjectLead: 0,
	models.RoleAdmin:       1,
	models.RoleMember:      2,
}

// sortMembers keeps creation order within each role.
func sortMembers(members []models.ProjectMember) {
	sort.SliceStable(members, func(i, j int) bool {
		return roleRank[members[i].Role] < roleRank[members[j].Role]
	})
}
