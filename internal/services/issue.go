package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/access"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IssueService runs the issue lifecycle: creation policy by role, field
// restrictions on update, and the proposal and assignment-request workflows.
type IssueService struct {
	db     *gorm.DB
	events *EventPublisher
}

func NewIssueService(db *gorm.DB, events *EventPublisher) *IssueService {
	return &IssueService{db: db, events: events}
}

type CreateIssueRequest struct {
	Title       string               `json:"title" binding:"required,max=500"`
	Description string               `json:"description"`
	Status      models.IssueStatus   `json:"status"`
	Priority    models.IssuePriority `json:"priority"`
	IssueType   models.IssueType     `json:"issue_type"`
	AssigneeID  *uuid.UUID           `json:"assignee_id"`
	PhaseID     *uuid.UUID           `json:"phase_id"`
	StartDate   *time.Time           `json:"start_date"`
	DueDate     *time.Time           `json:"due_date"`
}

// UpdateIssueRequest applies only the fields that are set. Unassign and
// RemoveFromPhase clear the nullable references.
type UpdateIssueRequest struct {
	Title           *string               `json:"title" binding:"omitempty,max=500"`
	Description     *string               `json:"description"`
	Status          *models.IssueStatus   `json:"status"`
	Priority        *models.IssuePriority `json:"priority"`
	IssueType       *models.IssueType     `json:"issue_type"`
	AssigneeID      *uuid.UUID            `json:"assignee_id"`
	Unassign        bool                  `json:"unassign"`
	PhaseID         *uuid.UUID            `json:"phase_id"`
	RemoveFromPhase bool                  `json:"remove_from_phase"`
	StartDate       *time.Time            `json:"start_date"`
	DueDate         *time.Time            `json:"due_date"`
}

type IssueListRequest struct {
	Status     models.IssueStatus `form:"status"`
	PhaseID    string             `form:"phase_id"`
	AssigneeID string             `form:"assignee_id"`
}

// Create applies the creation policy for the actor's role. Members may only
// propose tasks and bugs; leads and admins create committed work.
func (s *IssueService) Create(ctx context.Context, actor *models.User, projectID uuid.UUID, req *CreateIssueRequest) (*models.Issue, error) {
	if err := normalizeCreate(req); err != nil {
		return nil, err
	}

	var issue models.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := access.ForProject(ctx, tx, actor, projectID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.AnyMember...); err != nil {
			return err
		}

		if req.AssigneeID != nil {
			assignee, err := loadAssignee(tx, projectID, *req.AssigneeID)
			if assignee != nil && assignee.IsSuperuser {
				return errSuperuserAssignee
			}
			if err != nil && role.IsManager() {
				return err
			}
		}

		status := req.Status
		assigneeID := req.AssigneeID
		if role.IsManager() {
			if status == models.StatusProposed {
				status = models.StatusTodo
			}
		} else {
			if req.IssueType != models.TypeTask && req.IssueType != models.TypeBug {
				return response.NewForbidden("members can only create TASK or BUG issues")
			}
			status = models.StatusProposed
			assigneeID = nil
		}

		if req.PhaseID != nil {
			if err := checkPhase(tx, projectID, *req.PhaseID); err != nil {
				return err
			}
		}

		issue = models.Issue{
			Title:       req.Title,
			Description: req.Description,
			Status:      status,
			Priority:    req.Priority,
			IssueType:   req.IssueType,
			ProjectID:   projectID,
			ReporterID:  actor.ID,
			AssigneeID:  assigneeID,
			PhaseID:     req.PhaseID,
			StartDate:   req.StartDate,
			DueDate:     req.DueDate,
		}
		return tx.Omit(clause.Associations).Create(&issue).Error
	})
	if err != nil {
		return nil, err
	}

	ev := s.issueEvent(EventIssueProposed, actor, &issue)
	if issue.Status == models.StatusProposed {
		s.events.PublishToManagers(ctx, ev)
	}
	if issue.AssigneeID != nil {
		ev.Type = EventIssueAssigned
		s.events.Publish(ctx, ev, *issue.AssigneeID)
	}
	return s.reload(ctx, issue.ID)
}

// Update edits an issue. Admins and the lead may change anything; the
// assignee may edit the work but not its type, its assignee, or whether
// it is a proposal.
func (s *IssueService) Update(ctx context.Context, actor *models.User, issueID uuid.UUID, req *UpdateIssueRequest) (*models.Issue, error) {
	var (
		issue       *models.Issue
		wasProposed bool
		newAssignee *uuid.UUID
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, current, err := access.ForIssue(ctx, tx, actor, issueID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.AnyMember...); err != nil {
			return err
		}
		issue = current
		wasProposed = issue.Status == models.StatusProposed

		manager := role.IsManager()
		isAssignee := issue.AssigneeID != nil && *issue.AssigneeID == actor.ID
		if !manager && !isAssignee {
			return response.NewForbidden("only admins, the project lead or the assignee can update this issue")
		}

		if req.IssueType != nil && *req.IssueType != issue.IssueType {
			if !manager {
				return response.NewForbidden("only admins or the project lead can change the issue type")
			}
			if !req.IssueType.Valid() {
				return response.NewBadRequestf("invalid issue type %q", *req.IssueType)
			}
			issue.IssueType = *req.IssueType
		}

		if changesAssignee(issue, req) {
			if !manager {
				return response.NewForbidden("only admins or the project lead can change the assignee")
			}
			if req.Unassign {
				issue.AssigneeID = nil
			} else {
				if _, err := loadAssignee(tx, issue.ProjectID, *req.AssigneeID); err != nil {
					return err
				}
				id := *req.AssigneeID
				issue.AssigneeID = &id
				issue.AssigneeRequestID = nil
				newAssignee = &id
			}
		}

		if req.Status != nil && *req.Status != issue.Status {
			if !req.Status.Valid() {
				return response.NewBadRequestf("invalid status %q", *req.Status)
			}
			if (*req.Status == models.StatusProposed || wasProposed) && !manager {
				return response.NewForbidden("only admins or the project lead can move an issue in or out of PROPOSED")
			}
			issue.Status = *req.Status
		}

		if req.Priority != nil {
			if !req.Priority.Valid() {
				return response.NewBadRequestf("invalid priority %q", *req.Priority)
			}
			issue.Priority = *req.Priority
		}

		switch {
		case req.RemoveFromPhase:
			issue.PhaseID = nil
		case req.PhaseID != nil:
			if err := checkPhase(tx, issue.ProjectID, *req.PhaseID); err != nil {
				return err
			}
			id := *req.PhaseID
			issue.PhaseID = &id
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return response.NewBadRequest("title cannot be empty")
			}
			issue.Title = title
		}
		if req.Description != nil {
			issue.Description = *req.Description
		}
		if req.StartDate != nil {
			issue.StartDate = req.StartDate
		}
		if req.DueDate != nil {
			issue.DueDate = req.DueDate
		}
		if err := checkDates(issue.StartDate, issue.DueDate); err != nil {
			return err
		}

		return tx.Omit(clause.Associations).Save(issue).Error
	})
	if err != nil {
		return nil, err
	}

	if wasProposed && issue.Status != models.StatusProposed {
		s.events.Publish(ctx, s.issueEvent(EventProposalApproved, actor, issue), issue.ReporterID)
	}
	if newAssignee != nil {
		s.events.Publish(ctx, s.issueEvent(EventIssueAssigned, actor, issue), *newAssignee)
	}
	return s.reload(ctx, issue.ID)
}

// Delete removes an issue. ADMIN or PROJECT_LEAD only.
func (s *IssueService) Delete(ctx context.Context, actor *models.User, issueID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, issue, err := access.ForIssue(ctx, tx, actor, issueID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.Managers...); err != nil {
			return err
		}
		return tx.Delete(issue).Error
	})
}

// Get returns one issue. Members cannot see proposals they did not report.
func (s *IssueService) Get(ctx context.Context, actor *models.User, issueID uuid.UUID) (*models.Issue, error) {
	role, issue, err := access.ForIssue(ctx, s.db, actor, issueID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(role, access.AnyMember...); err != nil {
		return nil, err
	}
	if !visibleTo(role, actor, issue) {
		return nil, response.NewNotFound("issue not found")
	}
	return s.reload(ctx, issue.ID)
}

// List returns the project's issues filtered by what the actor may see.
func (s *IssueService) List(ctx context.Context, actor *models.User, projectID uuid.UUID, req *IssueListRequest) ([]models.Issue, error) {
	role, err := access.ForProject(ctx, s.db, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(role, access.AnyMember...); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Preload("Reporter").
		Preload("Assignee").
		Preload("AssigneeRequest").
		Where("project_id = ?", projectID)
	query = visibilityScope(query, role, actor)

	if req != nil {
		if req.Status != "" {
			if !req.Status.Valid() {
				return nil, response.NewBadRequestf("invalid status %q", req.Status)
			}
			query = query.Where("status = ?", req.Status)
		}
		if req.PhaseID != "" {
			id, err := uuid.Parse(req.PhaseID)
			if err != nil {
				return nil, response.NewBadRequest("invalid phase_id")
			}
			query = query.Where("phase_id = ?", id)
		}
		if req.AssigneeID != "" {
			id, err := uuid.Parse(req.AssigneeID)
			if err != nil {
				return nil, response.NewBadRequest("invalid assignee_id")
			}
			query = query.Where("assignee_id = ?", id)
		}
	}

	var issues []models.Issue
	if err := query.Order("created_at DESC").Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

// ApproveProposal moves a PROPOSED issue into the backlog as TO_DO.
func (s *IssueService) ApproveProposal(ctx context.Context, actor *models.User, issueID uuid.UUID) (*models.Issue, error) {
	var issue *models.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if issue, err = s.lockForManager(ctx, tx, actor, issueID); err != nil {
			return err
		}
		if issue.Status != models.StatusProposed {
			return errNotProposal
		}
		issue.Status = models.StatusTodo
		return tx.Model(issue).Update("status", models.StatusTodo).Error
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, s.issueEvent(EventProposalApproved, actor, issue), issue.ReporterID)
	return s.reload(ctx, issue.ID)
}

// RejectProposal deletes a PROPOSED issue.
func (s *IssueService) RejectProposal(ctx context.Context, actor *models.User, issueID uuid.UUID) error {
	var issue *models.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if issue, err = s.lockForManager(ctx, tx, actor, issueID); err != nil {
			return err
		}
		if issue.Status != models.StatusProposed {
			return errNotProposal
		}
		return tx.Delete(issue).Error
	})
	if err != nil {
		return err
	}

	s.events.Publish(ctx, s.issueEvent(EventProposalRejected, actor, issue), issue.ReporterID)
	return nil
}

// RequestAssignment records the actor's claim on an unassigned issue.
// Only one claim can be pending at a time.
func (s *IssueService) RequestAssignment(ctx context.Context, actor *models.User, issueID uuid.UUID) (*models.Issue, error) {
	var issue *models.Issue
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, current, err := access.ForIssue(ctx, tx, actor, issueID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.AnyMember...); err != nil {
			return err
		}
		if actor.IsSuperuser {
			return errSuperuserAssignee
		}
		if issue, err = lockIssue(tx, current.ID); err != nil {
			return err
		}
		if issue.AssigneeID != nil {
			return response.NewConflict("issue is already assigned")
		}
		if issue.AssigneeRequestID != nil {
			return response.NewConflict("an assignment request is already pending for this issue")
		}

		id := actor.ID
		issue.AssigneeRequestID = &id
		return tx.Model(issue).Update("assignee_request_id", id).Error
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishToManagers(ctx, s.issueEvent(EventAssignmentRequested, actor, issue))
	return s.reload(ctx, issue.ID)
}

// ApproveAssignment makes the pending requester the assignee.
func (s *IssueService) ApproveAssignment(ctx context.Context, actor *models.User, issueID uuid.UUID) (*models.Issue, error) {
	var (
		issue     *models.Issue
		requester uuid.UUID
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if issue, err = s.lockForManager(ctx, tx, actor, issueID); err != nil {
			return err
		}
		if issue.AssigneeRequestID == nil {
			return errNoPendingRequest
		}
		requester = *issue.AssigneeRequestID
		issue.AssigneeID = &requester
		issue.AssigneeRequestID = nil
		return tx.Model(issue).Updates(map[string]interface{}{
			"assignee_id":         requester,
			"assignee_request_id": nil,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, s.issueEvent(EventAssignmentApproved, actor, issue), requester)
	return s.reload(ctx, issue.ID)
}

// RejectAssignment drops the pending claim and leaves the issue unassigned.
func (s *IssueService) RejectAssignment(ctx context.Context, actor *models.User, issueID uuid.UUID) (*models.Issue, error) {
	var (
		issue     *models.Issue
		requester uuid.UUID
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if issue, err = s.lockForManager(ctx, tx, actor, issueID); err != nil {
			return err
		}
		if issue.AssigneeRequestID == nil {
			return errNoPendingRequest
		}
		requester = *issue.AssigneeRequestID
		issue.AssigneeRequestID = nil
		return tx.Model(issue).Update("assignee_request_id", nil).Error
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, s.issueEvent(EventAssignmentRejected, actor, issue), requester)
	return s.reload(ctx, issue.ID)
}

func (s *IssueService) lockForManager(ctx context.Context, tx *gorm.DB, actor *models.User, issueID uuid.UUID) (*models.Issue, error) {
	role, issue, err := access.ForIssue(ctx, tx, actor, issueID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(role, access.Managers...); err != nil {
		return nil, err
	}
	return lockIssue(tx, issue.ID)
}

// lockIssue re-reads an issue under a row lock for a workflow transition.
func lockIssue(tx *gorm.DB, issueID uuid.UUID) (*models.Issue, error) {
	var issue models.Issue
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", issueID).
		First(&issue).Error
	if err != nil {
		return nil, notFoundOr(err, "issue not found")
	}
	return &issue, nil
}

func (s *IssueService) reload(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	var issue models.Issue
	err := s.db.WithContext(ctx).
		Preload("Reporter").
		Preload("Assignee").
		Preload("AssigneeRequest").
		Where("id = ?", id).
		First(&issue).Error
	if err != nil {
		return nil, notFoundOr(err, "issue not found")
	}
	return &issue, nil
}

func (s *IssueService) issueEvent(t EventType, actor *models.User, issue *models.Issue) WorkflowEvent {
	id := issue.ID
	return WorkflowEvent{
		Type:       t,
		ProjectID:  issue.ProjectID,
		IssueID:    &id,
		IssueTitle: issue.Title,
		ActorID:    actor.ID,
	}
}

func normalizeCreate(req *CreateIssueRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return response.NewBadRequest("title is required")
	}
	if req.Status == "" {
		req.Status = models.StatusTodo
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if req.IssueType == "" {
		req.IssueType = models.TypeTask
	}
	if !req.Status.Valid() {
		return response.NewBadRequestf("invalid status %q", req.Status)
	}
	if !req.Priority.Valid() {
		return response.NewBadRequestf("invalid priority %q", req.Priority)
	}
	if !req.IssueType.Valid() {
		return response.NewBadRequestf("invalid issue type %q", req.IssueType)
	}
	return checkDates(req.StartDate, req.DueDate)
}

func checkDates(start, due *time.Time) error {
	if start != nil && due != nil && due.Before(*start) {
		return response.NewBadRequest("due date cannot be before start date")
	}
	return nil
}

func changesAssignee(issue *models.Issue, req *UpdateIssueRequest) bool {
	if req.Unassign {
		return issue.AssigneeID != nil
	}
	if req.AssigneeID == nil {
		return false
	}
	return issue.AssigneeID == nil || *issue.AssigneeID != *req.AssigneeID
}

// loadAssignee returns the user when they exist. A superuser is returned
// together with errSuperuserAssignee.
func loadAssignee(tx *gorm.DB, projectID, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "assignee not found")
	}
	if user.IsSuperuser {
		return &user, errSuperuserAssignee
	}

	var count int64
	if err := tx.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return &user, err
	}
	if count == 0 {
		return &user, response.NewBadRequest("assignee is not a member of this project")
	}
	return &user, nil
}

func checkPhase(tx *gorm.DB, projectID, phaseID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Phase{}).
		Where("id = ? AND project_id = ?", phaseID, projectID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return response.NewNotFound("phase not found")
	}
	return nil
}

func visibleTo(role access.EffectiveRole, actor *models.User, issue *models.Issue) bool {
	if role.IsManager() || issue.Status != models.StatusProposed {
		return true
	}
	return issue.ReporterID == actor.ID
}

func visibilityScope(query *gorm.DB, role access.EffectiveRole, actor *models.User) *gorm.DB {
	if role.IsManager() {
		return query
	}
	return query.Where("(status <> ? OR reporter_id = ?)", models.StatusProposed, actor.ID)
}
