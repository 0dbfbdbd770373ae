package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/priyamtech/expense-approval/internal/application/service"
	"github.com/priyamtech/expense-approval/internal/config"
	"github.com/priyamtech/expense-approval/internal/duplicate"
	larkext "github.com/priyamtech/expense-approval/internal/infrastructure/external/lark"
	openaiext "github.com/priyamtech/expense-approval/internal/infrastructure/external/openai"
	"github.com/priyamtech/expense-approval/internal/infrastructure/persistence/repository"
	"github.com/priyamtech/expense-approval/internal/infrastructure/persistence/sqlite"
	httpiface "github.com/priyamtech/expense-approval/internal/interfaces/http"
	"github.com/priyamtech/expense-approval/internal/policy"
	"github.com/priyamtech/expense-approval/internal/voucher"
	"github.com/priyamtech/expense-approval/pkg/database"
	"github.com/priyamtech/expense-approval/pkg/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting expense approval service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Voucher.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create voucher output directory", zap.Error(err))
	}

	// Repositories and transaction manager
	txManager := sqlite.NewDB(db.DB, logger)
	claimRepo := repository.NewClaimRepository(db.DB, logger)
	approvalRepo := repository.NewApprovalRepository(db.DB, logger)
	claimantRepo := repository.NewClaimantRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)

	// External adapters
	classifier := openaiext.NewClassifier(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.Temperature,
		cfg.OpenAI.MaxTokens,
		logger,
	)
	messenger := larkext.NewMessenger(larkext.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
	}, logger)
	exporter := voucher.NewExcelExporter(cfg.Voucher.OutputDir, cfg.Voucher.CompanyName, logger)

	// Domain policy and duplicate detection
	pol := policy.NewPolicy(policy.DefaultTable(), policy.DefaultSelfTable())
	svcLogger := &zapLoggerAdapter{sugar: logger.Sugar()}
	detector := duplicate.NewDetector(claimRepo, svcLogger)

	// Application services
	notifier := service.NewNotificationService(claimantRepo, notificationRepo, messenger, svcLogger)
	admissionService := service.NewAdmissionService(
		claimRepo, approvalRepo, claimantRepo, auditRepo,
		txManager, detector, pol, classifier, notifier, svcLogger,
	)
	approvalService := service.NewApprovalService(
		claimRepo, approvalRepo, claimantRepo, auditRepo,
		txManager, classifier, notifier, svcLogger,
	)
	voucherService := service.NewVoucherService(claimRepo, claimantRepo, exporter, svcLogger)

	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, admissionService, approvalService, voucherService, notifier, svcLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

// zapLoggerAdapter adapts zap to the Logger interfaces the services and
// HTTP layer accept.
type zapLoggerAdapter struct {
	sugar *zap.SugaredLogger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.sugar.Infow(msg, keysAndValues...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.sugar.Errorw(msg, keysAndValues...)
}
