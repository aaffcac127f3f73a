package main

import (
	"github.com/gin-gonic/gin"
	"github.com/projectflow/backend/internal/config"
	"github.com/projectflow/backend/internal/middleware"
	"github.com/projectflow/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	loginLimiter := middleware.NewRateLimiter(1, 10)

	r.GET("/health", svc.healthHandler.CheckHealth)

	api := r.Group("/api", middleware.AuditLog(svc.systemLog))
	api.POST("/token", loginLimiter.Middleware(), svc.authHandler.Login)

	protected := api.Group("", middleware.AuthRequired(svc.authSvc))
	{
		// Current user
		protected.GET("/users/me", svc.authHandler.GetMe)
		protected.PUT("/users/me", svc.authHandler.UpdateMe)
		protected.PUT("/users/me/password", svc.authHandler.ChangePassword)

		// Projects
		protected.GET("/projects", svc.projectHandler.List)
		protected.POST("/projects", svc.projectHandler.Create)
		protected.GET("/projects/:id", svc.projectHandler.GetByID)
		protected.PUT("/projects/:id", svc.projectHandler.Update)
		protected.DELETE("/projects/:id", svc.projectHandler.Delete)

		// Members
		protected.GET("/projects/:id/members", svc.memberHandler.List)
		protected.POST("/projects/:id/members", svc.memberHandler.Assign)
		protected.PUT("/projects/:id/members/:user_id", svc.memberHandler.UpdateRole)
		protected.DELETE("/projects/:id/members/:user_id", svc.memberHandler.Remove)

		// Issues
		protected.GET("/projects/:id/issues", svc.issueHandler.List)
		protected.POST("/projects/:id/issues", svc.issueHandler.Create)
		protected.GET("/issues/:id", svc.issueHandler.GetByID)
		protected.PUT("/issues/:id", svc.issueHandler.Update)
		protected.DELETE("/issues/:id", svc.issueHandler.Delete)
		protected.POST("/issues/:id/approve", svc.issueHandler.ApproveProposal)
		protected.POST("/issues/:id/reject", svc.issueHandler.RejectProposal)
		protected.POST("/issues/:id/request-assignment", svc.issueHandler.RequestAssignment)
		protected.POST("/issues/:id/approve-assignment", svc.issueHandler.ApproveAssignment)
		protected.POST("/issues/:id/reject-assignment", svc.issueHandler.RejectAssignment)

		// Phases
		protected.GET("/projects/:id/phases", svc.phaseHandler.List)
		protected.POST("/projects/:id/phases", svc.phaseHandler.Create)
		protected.PUT("/projects/:id/phases/reorder", svc.phaseHandler.Reorder)
		protected.PUT("/phases/:id", svc.phaseHandler.Update)
		protected.DELETE("/phases/:id", svc.phaseHandler.Delete)

		// Superuser only
		admin := protected.Group("", middleware.SuperuserRequired())
		{
			admin.GET("/users", svc.userHandler.List)
			admin.POST("/users", svc.userHandler.Create)
			admin.PUT("/users/:id", svc.userHandler.UpdatePrivileges)

			admin.GET("/dashboard", svc.dashboardHandler.Get)
			admin.GET("/dashboard/holiday-countries", svc.dashboardHandler.HolidayCountries)

			admin.GET("/system-logs", svc.systemLogHandler.List)
			admin.GET("/system-logs/modules", svc.systemLogHandler.GetModules)
		}
	}
}
