package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"employee-portal/employee-portal-backend/internal/config"
	"employee-portal/employee-portal-backend/internal/employees"
	"employee-portal/employee-portal-backend/internal/reports"
	"employee-portal/employee-portal-backend/internal/reports/delivery"
	"employee-portal/employee-portal-backend/internal/reports/events"
	"employee-portal/employee-portal-backend/internal/reports/scheduler"
	"employee-portal/employee-portal-backend/pkg/storage"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize logger
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		zap.NewExample().Fatal("Failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	// Connect to database
	logger.Info("Connecting to database",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName))
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to access connection pool", zap.Error(err))
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if cfg.Database.AutoMigrate {
		if err := employees.AutoMigrate(db); err != nil {
			logger.Fatal("Failed to migrate employees", zap.Error(err))
		}
		if err := reports.AutoMigrate(db); err != nil {
			logger.Fatal("Failed to migrate report runs", zap.Error(err))
		}
	}

	ctx := context.Background()

	var awsCfg aws.Config
	if cfg.UsesAWS() {
		awsCfg, err = storage.LoadAWSConfig(ctx, cfg.Storage.AWSRegion, cfg.Storage.AccessKeyID, cfg.Storage.SecretAccessKey)
		if err != nil {
			logger.Fatal("Failed to load AWS configuration", zap.Error(err))
		}
	}

	// Initialize Employees Module
	employeeRepo := employees.NewRepository(db)
	employeeService := employees.NewService(employeeRepo, logger)
	employeeHandler := employees.NewHandler(employeeService, logger)

	// Initialize Reporting Module
	var mailer delivery.Mailer
	if cfg.Mail.Transport != "" {
		mailer, err = delivery.NewMailer(delivery.Config{
			Transport: cfg.Mail.Transport,
			From:      delivery.Sender{Address: cfg.Mail.FromAddress, Name: cfg.Mail.FromName},
			SMTP: delivery.SMTPConfig{
				Host:     cfg.Mail.SMTP.Host,
				Port:     cfg.Mail.SMTP.Port,
				Username: cfg.Mail.SMTP.Username,
				Password: cfg.Mail.SMTP.Password,
			},
		}, awsCfg, logger)
		if err != nil {
			logger.Fatal("Failed to configure mail delivery", zap.Error(err))
		}
	}

	reportOptions := reports.DefaultOptions()
	reportOptions.PDF.Title = cfg.Reports.Title
	reportOptions.PDF.TitleOnEveryPage = cfg.Reports.TitleOnEveryPage
	reportOptions.PDF.IncludePageNum = cfg.Reports.IncludePageNumbers
	reportOptions.ArchiveBucket = cfg.Storage.ArchiveBucket
	reportOptions.ArchivePrefix = cfg.Storage.ArchivePrefix

	reportsService := reports.NewService(employeeRepo, reports.NewRepository(db), mailer, reportOptions, logger)
	if cfg.Storage.ArchiveBucket != "" {
		var index reports.ArchiveIndexer
		if cfg.Storage.ArchiveTable != "" {
			index = storage.NewArchiveIndexFromConfig(awsCfg, cfg.Storage.ArchiveTable)
		}
		reportsService.WithArchive(storage.NewS3Client(awsCfg), index)
	}
	if cfg.Reports.NotifyTopicARN != "" {
		reportsService.WithNotifier(delivery.NewSNSNotifierFromConfig(awsCfg, cfg.Reports.NotifyTopicARN, logger))
	}
	eventHub := events.NewHub(logger)
	defer eventHub.Close()
	reportsService.WithEvents(eventHub)
	reportsService.WithCache(cfg.Reports.CacheTTL)
	employeeService.OnChange(reportsService.InvalidateCache)
	reportsHandler := reports.NewHandler(reportsService, logger)

	// Scheduled delivery
	schedules := scheduler.NewScheduleManager(reportsService, logger, scheduler.DefaultScheduleManagerConfig())
	if cfg.Reports.Schedule != "" {
		err := schedules.AddSchedule(&scheduler.Schedule{
			ID:             uuid.New(),
			Name:           "employees-report",
			CronExpression: cfg.Reports.Schedule,
			Timezone:       cfg.Reports.ScheduleTimezone,
			Recipients:     cfg.Reports.ScheduleRecipients,
		})
		if err != nil {
			logger.Fatal("Failed to schedule report delivery", zap.Error(err))
		}
		logger.Info("Report delivery scheduled",
			zap.String("when", scheduler.DescribeCronExpression(cfg.Reports.Schedule)))
	}
	if err := schedules.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer schedules.Stop()

	// Setup Router
	router := gin.New()
	router.Use(gin.Recovery())

	// Register Routes
	api := router.Group("/api/v1")
	{
		employeeHandler.RegisterRoutes(api)
		reportsHandler.RegisterRoutes(api)
		eventHub.RegisterRoutes(api)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		state := "healthy"
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			state = "database unreachable"
		}
		c.JSON(status, gin.H{
			"status":    state,
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
