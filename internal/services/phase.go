package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/access"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PhaseService struct {
	db *gorm.DB
}

func NewPhaseService(db *gorm.DB) *PhaseService {
	return &PhaseService{db: db}
}

type CreatePhaseRequest struct {
	Name      string             `json:"name" binding:"required,max=200"`
	StartDate *time.Time         `json:"start_date"`
	EndDate   *time.Time         `json:"end_date"`
	Status    models.PhaseStatus `json:"status"`
}

type UpdatePhaseRequest struct {
	Name      *string             `json:"name" binding:"omitempty,max=200"`
	StartDate *time.Time          `json:"start_date"`
	EndDate   *time.Time          `json:"end_date"`
	Status    *models.PhaseStatus `json:"status"`
}

type PhaseOrder struct {
	ID    uuid.UUID `json:"id" binding:"required"`
	Order int       `json:"order"`
}

// PhaseView is a phase with its derived progress.
type PhaseView struct {
	models.Phase
	Progress   float64 `json:"progress"`
	IssueCount int     `json:"issue_count"`
}

// List returns the project's phases in order with their progress.
func (s *PhaseService) List(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]PhaseView, error) {
	role, err := access.ForProject(ctx, s.db, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(role, access.AnyMember...); err != nil {
		return nil, err
	}

	phases, err := orderedPhases(s.db.WithContext(ctx), projectID)
	if err != nil {
		return nil, err
	}
	var issues []models.Issue
	if err := s.db.WithContext(ctx).
		Select("id", "phase_id", "status").
		Where("project_id = ? AND phase_id IS NOT NULL", projectID).
		Find(&issues).Error; err != nil {
		return nil, err
	}
	return phaseViews(phases, issues), nil
}

// Create appends a phase after the last one.
func (s *PhaseService) Create(ctx context.Context, actor *models.User, projectID uuid.UUID, req *CreatePhaseRequest) (*models.Phase, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewBadRequest("name is required")
	}
	if req.Status == "" {
		req.Status = models.PhaseNotStarted
	}
	if !req.Status.Valid() {
		return nil, response.NewBadRequestf("invalid phase status %q", req.Status)
	}
	if err := checkPhaseDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	var phase models.Phase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := access.ForProject(ctx, tx, actor, projectID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.Managers...); err != nil {
			return err
		}

		existing, err := orderedPhases(tx, projectID)
		if err != nil {
			return err
		}
		next := 1
		if n := len(existing); n > 0 {
			next = existing[n-1].Order + 1
		}

		phase = models.Phase{
			ProjectID: projectID,
			Name:      name,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Order:     next,
			Status:    req.Status,
		}
		return tx.Omit(clause.Associations).Create(&phase).Error
	})
	if err != nil {
		return nil, err
	}
	return &phase, nil
}

// Update edits a phase. The role is resolved from the phase's own project.
func (s *PhaseService) Update(ctx context.Context, actor *models.User, phaseID uuid.UUID, req *UpdatePhaseRequest) (*models.Phase, error) {
	var phase *models.Phase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, current, err := access.ForPhase(ctx, tx, actor, phaseID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.Managers...); err != nil {
			return err
		}
		phase = current

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return response.NewBadRequest("name cannot be empty")
			}
			phase.Name = name
		}
		if req.Status != nil {
			if !req.Status.Valid() {
				return response.NewBadRequestf("invalid phase status %q", *req.Status)
			}
			phase.Status = *req.Status
		}
		if req.StartDate != nil {
			phase.StartDate = req.StartDate
		}
		if req.EndDate != nil {
			phase.EndDate = req.EndDate
		}
		if err := checkPhaseDates(phase.StartDate, phase.EndDate); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(phase).Error
	})
	if err != nil {
		return nil, err
	}
	return phase, nil
}

// Reorder rewrites the order of every phase in the project at once.
func (s *PhaseService) Reorder(ctx context.Context, actor *models.User, projectID uuid.UUID, orders []PhaseOrder) ([]models.Phase, error) {
	var phases []models.Phase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := access.ForProject(ctx, tx, actor, projectID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.Managers...); err != nil {
			return err
		}

		existing, err := orderedPhases(tx, projectID)
		if err != nil {
			return err
		}
		if err := validateReorder(existing, orders); err != nil {
			return err
		}

		for _, o := range orders {
			if err := tx.Model(&models.Phase{}).
				Where("id = ? AND project_id = ?", o.ID, projectID).
				Update("order", o.Order).Error; err != nil {
				return err
			}
		}
		phases, err = orderedPhases(tx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return phases, nil
}

// Delete removes a phase. Its issues stay in the project without a phase.
func (s *PhaseService) Delete(ctx context.Context, actor *models.User, phaseID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, phase, err := access.ForPhase(ctx, tx, actor, phaseID)
		if err != nil {
			return err
		}
		if err := access.Require(role, access.Managers...); err != nil {
			return err
		}
		if err := tx.Model(&models.Issue{}).
			Where("phase_id = ?", phase.ID).
			Update("phase_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(phase).Error
	})
}

func validateReorder(existing []models.Phase, orders []PhaseOrder) error {
	if len(orders) != len(existing) {
		return response.NewBadRequest("reorder must include every phase of the project")
	}
	known := make(map[uuid.UUID]bool, len(existing))
	for _, p := range existing {
		known[p.ID] = true
	}
	seenID := make(map[uuid.UUID]bool, len(orders))
	seenOrder := make(map[int]bool, len(orders))
	for _, o := range orders {
		if !known[o.ID] {
			return response.NewBadRequestf("phase %s does not belong to this project", o.ID)
		}
		if seenID[o.ID] {
			return response.NewBadRequestf("phase %s listed more than once", o.ID)
		}
		if seenOrder[o.Order] {
			return response.NewBadRequestf("order %d used more than once", o.Order)
		}
		seenID[o.ID] = true
		seenOrder[o.Order] = true
	}
	return nil
}

func checkPhaseDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return response.NewBadRequest("end date cannot be before start date")
	}
	return nil
}

// orderedPhases loads a project's phases sorted by their order column.
func orderedPhases(db *gorm.DB, projectID uuid.UUID) ([]models.Phase, error) {
	var phases []models.Phase
	if err := db.Where("project_id = ?", projectID).Find(&phases).Error; err != nil {
		return nil, err
	}
	sortPhases(phases)
	return phases, nil
}

func sortPhases(phases []models.Phase) {
	sort.SliceStable(phases, func(i, j int) bool { return phases[i].Order < phases[j].Order })
}

func phaseViews(phases []models.Phase, issues []models.Issue) []PhaseView {
	views := make([]PhaseView, 0, len(phases))
	for i := range phases {
		var count int
		for j := range issues {
			if issues[j].PhaseID != nil && *issues[j].PhaseID == phases[i].ID {
				count++
			}
		}
		views = append(views, PhaseView{
			Phase:      phases[i],
			Progress:   PhaseProgress(&phases[i], issues),
			IssueCount: count,
		})
	}
	return views
}
