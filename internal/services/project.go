package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/access"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectRequest struct {
	Name             string   `json:"name" binding:"required,max=200"`
	Key              string   `json:"key" binding:"required,max=4"`
	Description      string   `json:"description"`
	ProjectLeadEmail string   `json:"project_lead_email" binding:"omitempty,email"`
	Members          []string `json:"members"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=200"`
	Key         *string `json:"key" binding:"omitempty,max=4"`
	Description *string `json:"description"`
}

type IssueSummary struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	InReview   int `json:"in_review"`
	Done       int `json:"done"`
}

// ProjectSummary is the list view of a project.
type ProjectSummary struct {
	models.Project
	IssueSummary IssueSummary  `json:"issue_summary"`
	ProjectLead  *models.User  `json:"project_lead"`
	MemberCount  int           `json:"member_count"`
	Progress     float64       `json:"progress"`
	Status       ProjectStatus `json:"status"`
}

// ProjectDetail is the single-project view. Issues are filtered by what
// the viewer may see.
type ProjectDetail struct {
	ProjectSummary
	Members []models.ProjectMember `json:"members"`
	Issues  []models.Issue         `json:"issues"`
	Phases  []PhaseView            `json:"phases"`
}

// Create makes a project with its lead and initial members. Superuser only.
// Without a lead email the creator leads the project.
func (s *ProjectService) Create(ctx context.Context, actor *models.User, req *CreateProjectRequest) (*models.Project, error) {
	if !actor.IsSuperuser {
		return nil, response.NewForbidden("only superusers can create projects")
	}
	name, key, err := normalizeProject(req.Name, req.Key)
	if err != nil {
		return nil, err
	}

	var project models.Project
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		leadID := actor.ID
		if leadEmail := normalizeEmail(req.ProjectLeadEmail); leadEmail != "" {
			var lead models.User
			if err := tx.Where("email = ?", leadEmail).First(&lead).Error; err != nil {
				return notFoundOr(err, "project lead with email "+req.ProjectLeadEmail+" not found")
			}
			leadID = lead.ID
		}

		project = models.Project{Name: name, Key: key, Description: req.Description}
		if err := tx.Omit(clause.Associations).Create(&project).Error; err != nil {
			return err
		}

		members := []models.ProjectMember{{ProjectID: project.ID, UserID: leadID, Role: models.RoleProjectLead}}
		seen := map[uuid.UUID]bool{leadID: true}
		for _, email := range req.Members {
			var user models.User
			err := tx.Where("email = ?", normalizeEmail(email)).First(&user).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if seen[user.ID] {
				continue
			}
			seen[user.ID] = true
			members = append(members, models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: models.RoleMember})
		}
		return tx.Omit(clause.Associations).Create(&members).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Get returns the detail view of a project for any member.
func (s *ProjectService) Get(ctx context.Context, actor *models.User, projectID uuid.UUID) (*ProjectDetail, error) {
	role, err := access.ForProject(ctx, s.db, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(role, access.AnyMember...); err != nil {
		return nil, err
	}

	var project models.Project
	err = s.db.WithContext(ctx).
		Preload("Members.User").
		Preload("Issues.Reporter").
		Preload("Issues.Assignee").
		Preload("Issues.AssigneeRequest").
		Preload("Phases").
		Where("id = ?", projectID).
		First(&project).Error
	if err != nil {
		return nil, notFoundOr(err, "project not found")
	}

	sortMembers(project.Members)
	sortPhases(project.Phases)

	visible := make([]models.Issue, 0, len(project.Issues))
	for i := range project.Issues {
		if visibleTo(role, actor, &project.Issues[i]) {
			visible = append(visible, project.Issues[i])
		}
	}

	detail := &ProjectDetail{
		ProjectSummary: summarize(&project),
		Members:        project.Members,
		Issues:         visible,
		Phases:         phaseViews(project.Phases, project.Issues),
	}
	detail.Project.Members = nil
	detail.Project.Issues = nil
	detail.Project.Phases = nil
	return detail, nil
}

// ListForUser returns the projects the user belongs to. Superusers see all.
func (s *ProjectService) ListForUser(ctx context.Context, actor *models.User) ([]ProjectSummary, error) {
	query := s.db.WithContext(ctx).
		Preload("Members.User").
		Preload("Issues", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "project_id", "phase_id", "status")
		}).
		Preload("Phases")
	if !actor.IsSuperuser {
		query = query.Where("id IN (?)",
			s.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", actor.ID))
	}

	var projects []models.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	out := make([]ProjectSummary, 0, len(projects))
	for i := range projects {
		summary := summarize(&projects[i])
		summary.Project.Members = nil
		summary.Project.Issues = nil
		summary.Project.Phases = nil
		out = append(out, summary)
	}
	return out, nil
}

// Update edits the project's descriptive fields. ADMIN or PROJECT_LEAD.
func (s *ProjectService) Update(ctx context.Context, actor *models.User, projectID uuid.UUID, req *UpdateProjectRequest) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := access.ForProject(ctx, tx, actor, projectID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.Managers...); err != nil {
			return err
		}
		if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
			return notFoundOr(err, "project not found")
		}

		name, key := project.Name, project.Key
		if req.Name != nil {
			name = *req.Name
		}
		if req.Key != nil {
			key = *req.Key
		}
		if project.Name, project.Key, err = normalizeProject(name, key); err != nil {
			return err
		}
		if req.Description != nil {
			project.Description = *req.Description
		}
		return tx.Omit(clause.Associations).Save(&project).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete removes a project with its memberships, issues and phases.
// Superuser only.
func (s *ProjectService) Delete(ctx context.Context, actor *models.User, projectID uuid.UUID) error {
	if !actor.IsSuperuser {
		return response.NewForbidden("only superusers can delete projects")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
			return notFoundOr(err, "project not found")
		}
		for _, child := range []interface{}{&models.Issue{}, &models.Phase{}, &models.ProjectMember{}} {
			if err := tx.Where("project_id = ?", projectID).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&project).Error
	})
}

func normalizeProject(name, key string) (string, string, error) {
	name = strings.TrimSpace(name)
	key = strings.ToUpper(strings.TrimSpace(key))
	if name == "" {
		return "", "", response.NewBadRequest("name is required")
	}
	if key == "" || len(key) > 4 {
		return "", "", response.NewBadRequest("key must be 1 to 4 characters")
	}
	return name, key, nil
}

// summarize derives the counters and progress of a project loaded with its
// members, issues and phases.
func summarize(project *models.Project) ProjectSummary {
	var summary IssueSummary
	for _, issue := range project.Issues {
		switch issue.Status {
		case models.StatusProposed:
			continue
		case models.StatusTodo:
			summary.Todo++
		case models.StatusInProgress:
			summary.InProgress++
		case models.StatusInReview:
			summary.InReview++
		case models.StatusDone:
			summary.Done++
		}
		summary.Total++
	}

	var lead *models.User
	if m := projectLead(project.Members); m != nil {
		lead = m.User
	}

	progress := ProjectProgress(project.Phases, project.Issues)
	return ProjectSummary{
		Project:      *project,
		IssueSummary: summary,
		ProjectLead:  lead,
		MemberCount:  len(project.Members),
		Progress:     progress,
		Status:       Classify(progress),
	}
}
