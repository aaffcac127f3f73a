package main

import (
	"context"
	"fmt"

	"github.com/projectflow/backend/internal/config"
	"github.com/projectflow/backend/internal/handlers"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/internal/services"
	"github.com/projectflow/backend/internal/utils"
	"github.com/projectflow/backend/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds everything the HTTP server needs.
type appServices struct {
	db        *gorm.DB
	taskQueue services.TaskQueue
	worker    *services.Worker
	systemLog *services.SystemLogService
	authSvc   *services.AuthService

	authHandler      *handlers.AuthHandler
	userHandler      *handlers.UserHandler
	projectHandler   *handlers.ProjectHandler
	memberHandler    *handlers.MemberHandler
	issueHandler     *handlers.IssueHandler
	phaseHandler     *handlers.PhaseHandler
	dashboardHandler *handlers.DashboardHandler
	systemLogHandler *handlers.SystemLogHandler
	healthHandler    *handlers.HealthHandler
}

// openDatabase connects and migrates.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := models.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// bootstrap opens the database, seeds the default superuser, and wires
// services to handlers.
func bootstrap(ctx context.Context, cfg *config.Config) (*appServices, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if user, created, err := services.EnsureSuperuser(ctx, db, &cfg.Admin); err != nil {
		logger.Warn().Err(err).Msg("Failed to create default superuser")
	} else if created {
		logger.Info().Str("email", user.Email).Msg("Default superuser created")
	}

	tokens, err := utils.NewTokenIssuer(&cfg.JWT)
	if err != nil {
		return nil, err
	}

	systemLog := services.NewSystemLogService(db)

	// Redis backed queue when enabled, otherwise events are recorded inline
	taskQueue := services.NewTaskQueue(&cfg.Redis)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(systemLog.RecordEvent)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		worker.SetProcessor(systemLog.RecordEvent)
		worker.Start()
	}

	events := services.NewEventPublisher(db, taskQueue)
	holidays := services.NewHolidayService(cfg.Dashboard.HolidayCountry)
	authSvc := services.NewAuthService(db, tokens, services.NewLDAPService(&cfg.LDAP))

	return &appServices{
		db:        db,
		taskQueue: taskQueue,
		worker:    worker,
		systemLog: systemLog,
		authSvc:   authSvc,

		authHandler:      handlers.NewAuthHandler(authSvc),
		userHandler:      handlers.NewUserHandler(services.NewUserService(db)),
		projectHandler:   handlers.NewProjectHandler(services.NewProjectService(db)),
		memberHandler:    handlers.NewMemberHandler(services.NewMemberService(db, events)),
		issueHandler:     handlers.NewIssueHandler(services.NewIssueService(db, events)),
		phaseHandler:     handlers.NewPhaseHandler(services.NewPhaseService(db)),
		dashboardHandler: handlers.NewDashboardHandler(services.NewDashboardService(db, holidays, cfg.Dashboard.DeadlineDays), holidays),
		systemLogHandler: handlers.NewSystemLogHandler(systemLog),
		healthHandler:    handlers.NewHealthHandler(db, taskQueue),
	}, nil
}

// shutdown stops the worker and releases connections.
func (s *appServices) shutdown() {
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("Shutdown complete")
}
