package services

import (
	"math"

	"github.com/projectflow/backend/internal/models"
)

// ProjectStatus is the label derived from a project's progress.
type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "not_started"
	ProjectDelayed    ProjectStatus = "delayed"
	ProjectOnTrack    ProjectStatus = "on_track"
	ProjectCompleted  ProjectStatus = "completed"
)

const onTrackThreshold = 75.0

// PhaseProgress returns the percentage of DONE issues in a phase. An empty
// phase counts as 100 only when it is marked COMPLETED.
func PhaseProgress(phase *models.Phase, issues []models.Issue) float64 {
	var total, done int
	for i := range issues {
		if issues[i].PhaseID == nil || *issues[i].PhaseID != phase.ID {
			continue
		}
		total++
		if issues[i].Status == models.StatusDone {
			done++
		}
	}
	if total == 0 {
		if phase.Status == models.PhaseCompleted {
			return 100
		}
		return 0
	}
	return float64(done) / float64(total) * 100
}

// ProjectProgress rolls up phases when the project has any, otherwise it
// falls back to the share of DONE issues among non-proposals.
func ProjectProgress(phases []models.Phase, issues []models.Issue) float64 {
	if len(phases) > 0 {
		var complete int
		for i := range phases {
			if math.Round(PhaseProgress(&phases[i], issues)) >= 100 {
				complete++
			}
		}
		return float64(complete) / float64(len(phases)) * 100
	}

	var active, done int
	for i := range issues {
		switch issues[i].Status {
		case models.StatusProposed:
			continue
		case models.StatusDone:
			done++
		}
		active++
	}
	if active == 0 {
		return 0
	}
	return float64(done) / float64(active) * 100
}

// Classify labels a progress value.
func Classify(progress float64) ProjectStatus {
	switch {
	case math.Round(progress) >= 100:
		return ProjectCompleted
	case progress >= onTrackThreshold:
		return ProjectOnTrack
	case progress > 0:
		return ProjectDelayed
	}
	return ProjectNotStarted
}
