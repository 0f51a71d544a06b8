package main

import (
	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/config"
	"github.com/lisho/deontolog-ia-feedback/internal/handlers"
	"github.com/lisho/deontolog-ia-feedback/internal/middleware"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
)

// registerRoutes sets up every HTTP route on r.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery(), middleware.Metrics())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(cfg.Server.AllowOrigins...))

	r.GET("/health", svc.health.CheckHealth)
	r.GET("/metrics", handlers.Metrics())

	// Submissions need no login and are rate limited per IP.
	submit := []gin.HandlerFunc{}
	if svc.rateLimiter != nil {
		submit = append(submit, svc.rateLimiter.Middleware())
	}

	api := r.Group("/api")
	{
		public := api.Group("/feedback")
		{
			public.GET("/options", svc.feedback.Options)
			public.POST("/preview", append(submit, svc.feedback.Preview)...)
			public.POST("", append(submit, svc.feedback.Submit)...)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/login", append(submit, svc.auth.Login)...)
			auth.GET("/config", svc.auth.GetAuthConfig)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.auth.GetCurrentUser)
			protected.POST("/auth/logout", svc.auth.Logout)
			protected.POST("/auth/change-password", svc.auth.ChangePassword)

			// EventSource clients pass the token as ?token=.
			protected.GET("/events/feedback", middleware.StaffRequired(), svc.sse.StreamFeedback)
			protected.GET("/events/jobs", middleware.StaffRequired(), svc.sse.StreamJobs)
		}

		// Review workflow, for admins and reviewers.
		staff := api.Group("/admin")
		staff.Use(middleware.AuthRequired(), middleware.StaffRequired(), middleware.AuditLog())
		{
			staff.GET("/feedback", svc.feedback.List)
			staff.GET("/feedback/export", svc.feedback.Export)
			staff.POST("/feedback/bulk/status", svc.feedback.BulkStatus)
			staff.POST("/feedback/bulk/delete", svc.feedback.BulkDelete)
			staff.POST("/feedback/import", svc.feedback.Import)
			staff.GET("/feedback/:id", svc.feedback.Get)
			staff.PUT("/feedback/:id/review", svc.feedback.UpdateReview)
			staff.POST("/feedback/:id/assist", svc.feedback.Assist)
			staff.DELETE("/feedback/:id", svc.feedback.Delete)

			staff.GET("/dashboard", svc.dashboard.GetStats)

			staff.POST("/reports", svc.reports.Generate)
			staff.GET("/reports", svc.reports.List)
			staff.GET("/reports/:id", svc.reports.Get)
			staff.GET("/reports/:id/document", svc.reports.Document)
			staff.DELETE("/reports/:id", svc.reports.Delete)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			admin.GET("/llm-configs", svc.llmConfigs.List)
			admin.GET("/llm-configs/active", svc.llmConfigs.GetActive)
			admin.GET("/llm-configs/:id", svc.llmConfigs.GetByID)
			admin.POST("/llm-configs", svc.llmConfigs.Create)
			admin.PUT("/llm-configs/:id", svc.llmConfigs.Update)
			admin.DELETE("/llm-configs/:id", svc.llmConfigs.Delete)
			admin.POST("/llm-configs/:id/test", svc.llmConfigs.Test)

			admin.GET("/system-config/report-schedule", svc.systemConfig.GetReportSchedule)
			admin.PUT("/system-config/report-schedule", svc.systemConfig.UpdateReportSchedule)
			admin.GET("/system-config/general", svc.systemConfig.GetGeneral)
			admin.PUT("/system-config/general", svc.systemConfig.UpdateGeneral)
			admin.GET("/system-config/ldap", svc.systemConfig.GetLDAPConfig)

			admin.GET("/system-logs", svc.systemLogs.List)
			admin.GET("/system-logs/modules", svc.systemLogs.GetModules)

			admin.GET("/ai-usage", svc.aiUsage.List)
			admin.GET("/ai-usage/stats", svc.aiUsage.GetStats)
			admin.GET("/ai-usage/trend", svc.aiUsage.GetDailyTrend)
			admin.GET("/ai-usage/providers", svc.aiUsage.GetProviderBreakdown)
		}
	}
}
