package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/projectflow/backend/internal/models"
	"gorm.io/gorm"
)

const (
	dashboardThemes     = 4
	dashboardDeadlines  = 5
	dashboardActivities = 5
)

type DeadlinePriority string

const (
	DeadlineCritical DeadlinePriority = "Critical"
	DeadlineMedium   DeadlinePriority = "Medium"
	DeadlineLow      DeadlinePriority = "Low"
)

type StatCard struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type ThemeProgress struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Progress int    `json:"progress"`
}

type Deadline struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Priority     DeadlinePriority `json:"priority"`
	BusinessDays int              `json:"business_days"`
}

type Activity struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Time        string `json:"time"`
}

type DashboardResponse struct {
	Stats      []StatCard      `json:"stats"`
	Themes     []ThemeProgress `json:"themes"`
	Deadlines  []Deadline      `json:"deadlines"`
	Activities []Activity      `json:"activities"`
}

// DashboardService builds the superuser executive dashboard.
type DashboardService struct {
	db       *gorm.DB
	holidays *HolidayService
	window   int
	now      func() time.Time
}

func NewDashboardService(db *gorm.DB, holidays *HolidayService, deadlineDays int) *DashboardService {
	if deadlineDays <= 0 {
		deadlineDays = 7
	}
	return &DashboardService{db: db, holidays: holidays, window: deadlineDays, now: time.Now}
}

func (s *DashboardService) Get(ctx context.Context) (*DashboardResponse, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Preload("Issues", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "project_id", "phase_id", "status")
		}).
		Preload("Phases").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	deadlines, err := s.deadlines(ctx)
	if err != nil {
		return nil, err
	}
	activities, err := s.activities(ctx)
	if err != nil {
		return nil, err
	}

	progress := make([]float64, len(projects))
	for i := range projects {
		progress[i] = ProjectProgress(projects[i].Phases, projects[i].Issues)
	}

	return &DashboardResponse{
		Stats:      statCards(progress),
		Themes:     themes(projects, progress),
		Deadlines:  deadlines,
		Activities: activities,
	}, nil
}

func statCards(progress []float64) []StatCard {
	counts := map[ProjectStatus]int{}
	for _, p := range progress {
		counts[Classify(p)]++
	}
	total := len(progress)
	share := func(n int) string {
		if total == 0 {
			return "0% of total"
		}
		return fmt.Sprintf("%d%% of total", n*100/total)
	}
	return []StatCard{
		{Title: "Total Projects", Value: fmt.Sprint(total), Description: "All projects"},
		{Title: "On Track", Value: fmt.Sprint(counts[ProjectOnTrack]), Description: share(counts[ProjectOnTrack])},
		{Title: "Delayed", Value: fmt.Sprint(counts[ProjectDelayed]), Description: share(counts[ProjectDelayed])},
		{Title: "Completed", Value: fmt.Sprint(counts[ProjectCompleted]), Description: share(counts[ProjectCompleted])},
	}
}

func themes(projects []models.Project, progress []float64) []ThemeProgress {
	idx := make([]int, len(projects))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return progress[idx[a]] > progress[idx[b]] })
	if len(idx) > dashboardThemes {
		idx = idx[:dashboardThemes]
	}

	out := make([]ThemeProgress, 0, len(idx))
	for _, i := range idx {
		out = append(out, ThemeProgress{
			ID:       projects[i].ID.String(),
			Name:     fmt.Sprintf("%s (%s)", projects[i].Name, projects[i].Key),
			Progress: int(progress[i]),
		})
	}
	return out
}

func (s *DashboardService) deadlines(ctx context.Context) ([]Deadline, error) {
	today := truncateDay(s.now())
	until := today.AddDate(0, 0, s.window+1)

	var issues []models.Issue
	err := s.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date >= ? AND due_date < ? AND status <> ?", today, until, models.StatusDone).
		Order("due_date ASC").
		Limit(dashboardDeadlines).
		Find(&issues).Error
	if err != nil {
		return nil, err
	}

	out := make([]Deadline, 0, len(issues))
	for _, issue := range issues {
		daysLeft := int(truncateDay(*issue.DueDate).Sub(today).Hours() / 24)
		business := s.holidays.BusinessDaysUntil(today, *issue.DueDate)
		out = append(out, Deadline{
			ID:           issue.ID.String(),
			Title:        issue.Title,
			Description:  fmt.Sprintf("Due in %d day(s)", daysLeft),
			Priority:     deadlinePriority(business),
			BusinessDays: business,
		})
	}
	return out, nil
}

// deadlinePriority grades the remaining working days.
func deadlinePriority(businessDays int) DeadlinePriority {
	switch {
	case businessDays <= 2:
		return DeadlineCritical
	case businessDays <= 5:
		return DeadlineMedium
	}
	return DeadlineLow
}

func (s *DashboardService) activities(ctx context.Context) ([]Activity, error) {
	var issues []models.Issue
	err := s.db.WithContext(ctx).
		Preload("Project").
		Order("created_at DESC").
		Limit(dashboardActivities).
		Find(&issues).Error
	if err != nil {
		return nil, err
	}

	if len(issues) == 0 {
		return []Activity{{
			ID:          "a0",
			Type:        "completion",
			Description: "System initialized. Ready for new projects.",
			Time:        "just now",
		}}, nil
	}

	now := s.now()
	out := make([]Activity, 0, len(issues))
	for _, issue := range issues {
		key := ""
		if issue.Project != nil {
			key = issue.Project.Key
		}
		out = append(out, Activity{
			ID:          issue.ID.String(),
			Type:        "assignment",
			Description: fmt.Sprintf("New issue '%s' created in %s", issue.Title, key),
			Time:        humanize.RelTime(issue.CreatedAt, now, "ago", "from now"),
		})
	}
	return out, nil
}
