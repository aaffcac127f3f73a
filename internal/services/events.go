package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/pkg/logger"
	"gorm.io/gorm"
)

type EventType string

const (
	EventIssueProposed       EventType = "issue.proposed"
	EventProposalApproved    EventType = "proposal.approved"
	EventProposalRejected    EventType = "proposal.rejected"
	EventIssueAssigned       EventType = "issue.assigned"
	EventAssignmentRequested EventType = "assignment.requested"
	EventAssignmentApproved  EventType = "assignment.approved"
	EventAssignmentRejected  EventType = "assignment.rejected"
	EventMemberAdded         EventType = "member.added"
	EventMemberRoleChanged   EventType = "member.role_changed"
	EventMemberRemoved       EventType = "member.removed"
)

// preference names the user flag that mutes an event type, if any.
func (t EventType) preference() string {
	switch t {
	case EventIssueProposed, EventProposalApproved, EventProposalRejected:
		return "notify_on_proposal"
	case EventIssueAssigned, EventAssignmentRequested, EventAssignmentApproved, EventAssignmentRejected:
		return "notify_on_assignment"
	}
	return ""
}

// WorkflowEvent describes a committed transition. Delivery is left to
// whatever consumes the task queue.
type WorkflowEvent struct {
	Type       EventType   `json:"type"`
	ProjectID  uuid.UUID   `json:"project_id"`
	IssueID    *uuid.UUID  `json:"issue_id,omitempty"`
	IssueTitle string      `json:"issue_title,omitempty"`
	ActorID    uuid.UUID   `json:"actor_id"`
	Recipients []uuid.UUID `json:"recipients"`
	Role       string      `json:"role,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// EventPublisher filters recipients by their notification preferences and
// enqueues events. A nil publisher drops everything.
type EventPublisher struct {
	db    *gorm.DB
	queue TaskQueue
}

func NewEventPublisher(db *gorm.DB, queue TaskQueue) *EventPublisher {
	return &EventPublisher{db: db, queue: queue}
}

// Publish must be called after the transition has committed. Failures are
// logged and never returned.
func (p *EventPublisher) Publish(ctx context.Context, event WorkflowEvent, candidates ...uuid.UUID) {
	if p == nil || p.queue == nil {
		return
	}

	recipients, err := p.recipients(ctx, event, candidates)
	if err != nil {
		logger.Warn().Err(err).Str("event", string(event.Type)).Msg("failed to resolve event recipients")
		return
	}
	if len(recipients) == 0 {
		return
	}

	event.Recipients = recipients
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := p.queue.Enqueue(ctx, &event); err != nil {
		logger.Warn().Err(err).Str("event", string(event.Type)).Msg("failed to enqueue workflow event")
	}
}

// PublishToManagers sends event to the project's ADMIN and PROJECT_LEAD members.
func (p *EventPublisher) PublishToManagers(ctx context.Context, event WorkflowEvent) {
	if p == nil {
		return
	}
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).Model(&models.ProjectMember{}).
		Where("project_id = ? AND role IN ?", event.ProjectID, []models.ProjectRole{models.RoleAdmin, models.RoleProjectLead}).
		Pluck("user_id", &ids).Error
	if err != nil {
		logger.Warn().Err(err).Str("event", string(event.Type)).Msg("failed to load project managers")
		return
	}
	p.Publish(ctx, event, ids...)
}

func (p *EventPublisher) recipients(ctx context.Context, event WorkflowEvent, candidates []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(candidates))
	var ids []uuid.UUID
	for _, id := range candidates {
		if id == uuid.Nil || id == event.ActorID || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	query := p.db.WithContext(ctx).Model(&models.User{}).Where("id IN ? AND is_active = ?", ids, true)
	if pref := event.Type.preference(); pref != "" {
		query = query.Where(pref+" = ?", true)
	}

	var out []uuid.UUID
	if err := query.Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
