package main

import (
	"github.com/lisho/deontolog-ia-feedback/internal/config"
	"github.com/lisho/deontolog-ia-feedback/internal/handlers"
	"github.com/lisho/deontolog-ia-feedback/internal/metrics"
	"github.com/lisho/deontolog-ia-feedback/internal/middleware"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/internal/store"
	"github.com/lisho/deontolog-ia-feedback/internal/utils"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// appServices holds the wired services, handlers and background workers.
type appServices struct {
	db          *gorm.DB
	taskQueue   services.TaskQueue
	worker      *services.Worker
	scheduler   *services.ReportScheduler
	logCleanup  *cron.Cron
	usage       *services.AIUsageService
	rateLimiter *middleware.RateLimiter

	auth         *handlers.AuthHandler
	feedback     *handlers.FeedbackHandler
	reports      *handlers.ReportHandler
	dashboard    *handlers.DashboardHandler
	llmConfigs   *handlers.LLMConfigHandler
	systemConfig *handlers.SystemConfigHandler
	systemLogs   *handlers.SystemLogHandler
	aiUsage      *handlers.AIUsageHandler
	sse          *handlers.SSEHandler
	health       *handlers.HealthHandler
}

// bootstrap opens the database and wires every dependency. Failures that
// leave the service unusable are fatal.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	db := models.GetDB()
	if err := models.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.Seed(db); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := metrics.RegisterDBStats(sqlDB, cfg.Database.Driver); err != nil {
			logger.Warn().Err(err).Msg("Failed to register database metrics")
		}
	}

	services.InitSystemLogger(db)

	st, err := store.New(cfg.Store, db)
	if err != nil {
		logger.Fatalf("Failed to open feedback store: %v", err)
	}

	configs := services.NewSystemConfigService(db)
	holidays := services.NewHolidayService()
	usage := services.NewAIUsageService(db)
	ai := services.NewAIService(db, &cfg.OpenAI, cfg.AI, usage)

	feedbackService := services.NewFeedbackService(st, configs)
	assistService := services.NewReviewAssistService(st, ai, configs)
	reportService := services.NewReportService(feedbackService, st, ai, configs, cfg.AI.ReportSampleSize)
	dashboardService := services.NewDashboardService(feedbackService)
	systemLogService := services.NewSystemLogService(db, configs)
	ldapService := services.NewLDAPService(configs, &cfg.LDAP)
	authService := services.NewAuthService(db, &cfg.JWT, ldapService)

	if err := authService.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	// Jobs run inline without Redis and on the asynq worker with it.
	hub := services.NewJobHub()
	taskQueue := services.NewTaskQueue(&cfg.Redis)
	jobs := services.NewJobRunner(taskQueue, reportService, assistService, hub)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(jobs.Process)
	}
	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis, jobs.Process)
		if worker != nil {
			if err := worker.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start task worker")
				worker = nil
			}
		}
	}

	scheduler := services.NewReportScheduler(db, configs, holidays, reportService)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start report scheduler")
	}
	logCleanup, err := systemLogService.StartCleanupScheduler()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start log cleanup scheduler")
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	backend := cfg.Store.Backend
	if backend == "" {
		backend = "gorm"
	}

	return &appServices{
		db:          db,
		taskQueue:   taskQueue,
		worker:      worker,
		scheduler:   scheduler,
		logCleanup:  logCleanup,
		usage:       usage,
		rateLimiter: limiter,

		auth:         handlers.NewAuthHandler(authService),
		feedback:     handlers.NewFeedbackHandler(feedbackService, assistService, jobs),
		reports:      handlers.NewReportHandler(reportService, jobs),
		dashboard:    handlers.NewDashboardHandler(dashboardService),
		llmConfigs:   handlers.NewLLMConfigHandler(services.NewLLMConfigService(db), ai),
		systemConfig: handlers.NewSystemConfigHandler(configs, holidays, scheduler),
		systemLogs:   handlers.NewSystemLogHandler(systemLogService),
		aiUsage:      handlers.NewAIUsageHandler(usage),
		sse:          handlers.NewSSEHandler(hub, feedbackService),
		health:       handlers.NewHealthHandler(db, taskQueue, hub, backend),
	}
}

// shutdown stops the schedulers, drains the queue and closes the database.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	if s.logCleanup != nil {
		<-s.logCleanup.Stop().Done()
	}
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.usage.Wait()

	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
