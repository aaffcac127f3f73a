package services

import (
	"context"
	"testing"
	"time"

	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadlinePriority(t *testing.T) {
	tests := []struct {
		days int
		want DeadlinePriority
	}{
		{0, DeadlineCritical},
		{2, DeadlineCritical},
		{3, DeadlineMedium},
		{5, DeadlineMedium},
		{6, DeadlineLow},
	}
	for _, tt := range tests {
		if got := deadlinePriority(tt.days); got != tt.want {
			t.Errorf("deadlinePriority(%d) = %q, expected %q", tt.days, got, tt.want)
		}
	}
}

func TestStatCards(t *testing.T) {
	cards := statCards([]float64{0, 40, 80, 100})
	require.Len(t, cards, 4)

	assert.Equal(t, StatCard{Title: "Total Projects", Value: "4", Description: "All projects"}, cards[0])
	assert.Equal(t, StatCard{Title: "On Track", Value: "1", Description: "25% of total"}, cards[1])
	assert.Equal(t, StatCard{Title: "Delayed", Value: "1", Description: "25% of total"}, cards[2])
	assert.Equal(t, StatCard{Title: "Completed", Value: "1", Description: "25% of total"}, cards[3])

	empty := statCards(nil)
	assert.Equal(t, "0", empty[0].Value)
	assert.Equal(t, "0% of total", empty[1].Description)
}

func TestDashboardService_EmptySystem(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDashboardService(db, NewHolidayService(CountryNone), 7)

	resp, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Themes)
	assert.Empty(t, resp.Deadlines)
	require.Len(t, resp.Activities, 1)
	assert.Equal(t, "System initialized. Ready for new projects.", resp.Activities[0].Description)
	assert.Equal(t, "just now", resp.Activities[0].Time)
}

func TestDashboardService_Get(t *testing.T) {
	f := newFixture(t)
	// Wednesday
	now := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)
	svc := NewDashboardService(f.db, NewHolidayService(CountryNone), 7)
	svc.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		p := testutil.CreateProject(t, f.db, "Side", "SD")
		testutil.CreateIssue(t, f.db, p.ID, f.lead.ID, models.StatusDone)
	}

	due := func(days int) testutil.IssueOption {
		return func(i *models.Issue) {
			d := now.AddDate(0, 0, days)
			i.DueDate = &d
			i.Title = "due"
		}
	}
	testutil.CreateIssue(t, f.db, f.project.ID, f.lead.ID, models.StatusTodo, due(1))
	testutil.CreateIssue(t, f.db, f.project.ID, f.lead.ID, models.StatusTodo, due(6))
	testutil.CreateIssue(t, f.db, f.project.ID, f.lead.ID, models.StatusDone, due(2))
	testutil.CreateIssue(t, f.db, f.project.ID, f.lead.ID, models.StatusTodo, due(9))

	resp, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "6", resp.Stats[0].Value)
	assert.Equal(t, "5", resp.Stats[3].Value)

	assert.Len(t, resp.Themes, 4)
	assert.Equal(t, 100, resp.Themes[0].Progress)
	assert.Equal(t, "Side (SD)", resp.Themes[0].Name)

	require.Len(t, resp.Deadlines, 2)
	assert.Equal(t, "Due in 1 day(s)", resp.Deadlines[0].Description)
	assert.Equal(t, DeadlineCritical, resp.Deadlines[0].Priority)
	// Wed +6 is Tuesday, four working days away
	assert.Equal(t, "Due in 6 day(s)", resp.Deadlines[1].Description)
	assert.Equal(t, 4, resp.Deadlines[1].BusinessDays)
	assert.Equal(t, DeadlineMedium, resp.Deadlines[1].Priority)

	require.Len(t, resp.Activities, 5)
	assert.Equal(t, "assignment", resp.Activities[0].Type)
	assert.Contains(t, resp.Activities[0].Description, "created in")
}
