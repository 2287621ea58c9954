package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/wolfman30/docconnect-ai/cmd/mainconfig"
	"github.com/wolfman30/docconnect-ai/internal/admin"
	"github.com/wolfman30/docconnect-ai/internal/api/router"
	"github.com/wolfman30/docconnect-ai/internal/archive"
	"github.com/wolfman30/docconnect-ai/internal/attendance"
	"github.com/wolfman30/docconnect-ai/internal/bookings"
	appconfig "github.com/wolfman30/docconnect-ai/internal/config"
	"github.com/wolfman30/docconnect-ai/internal/conversation"
	"github.com/wolfman30/docconnect-ai/internal/directory"
	"github.com/wolfman30/docconnect-ai/internal/inquiries"
	"github.com/wolfman30/docconnect-ai/internal/messaging"
	"github.com/wolfman30/docconnect-ai/internal/notify"
	"github.com/wolfman30/docconnect-ai/internal/webchat"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting docconnect-ai API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	ctx := context.Background()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("DATABASE_URL is required and must be reachable")
		os.Exit(1)
	}
	defer pool.Close()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	metricsHandler, gatherer, chatMetrics, bookingMetrics := setupMetrics()

	chatLog, closeChatLog := setupChatLog(ctx, cfg, pool, logger)
	defer closeChatLog()

	// Outbound channels
	twilio := setupTwilio(cfg, logger)
	var messenger notify.MessageSender
	var alerter attendance.Alerter
	if twilio != nil {
		messenger = twilio
		alerter = twilio
	}
	emailSender := notify.NewEmailSender(notify.ProviderConfig{
		Provider: cfg.EmailProvider,
		SendGrid: notify.SendGridConfig{
			APIKey: cfg.SendGridAPIKey,
			From:   notify.Address{Email: cfg.SendGridFromEmail, Name: cfg.SendGridFromName},
		},
		SES: notify.SESConfig{
			From: notify.Address{Email: cfg.SESFromEmail, Name: cfg.SendGridFromName},
		},
	}, sesv2.NewFromConfig(awsCfg), logger)

	// Chat core
	doctors := directory.NewRepository(pool)
	bookingService := bookings.NewService(bookings.NewRepository(pool), logger,
		bookings.WithNotifier(notify.NewConfirmationService(emailSender, messenger, cfg.HospitalName, logger)),
		bookings.WithMetrics(bookingMetrics),
	)
	orchestrator := conversation.NewOrchestrator(conversation.OrchestratorConfig{
		Completer: buildCompleter(ctx, cfg, awsCfg, logger),
		Tools:     conversation.NewToolBox(doctors, bookingService, logger),
		ChatLog:   chatLog,
		Hospital: conversation.HospitalInfo{
			Name:     cfg.HospitalName,
			Hours:    cfg.HospitalHours,
			Location: cfg.HospitalLocation,
			Phone:    cfg.HospitalPhone,
			Email:    cfg.HospitalEmail,
		},
		CompletionTimeout: cfg.CompletionTimeout,
		Metrics:           chatMetrics,
		Logger:            logger,
	})

	chatHandler := conversation.NewHandler(orchestrator, chatLog, cfg.ChatPersistUserTurn, logger)
	webChatHandler := webchat.NewHandler(orchestrator, chatLog, cfg.ChatPersistUserTurn, logger)
	whatsAppStore := messaging.NewStore(pool)

	// Admin
	var classifier *archive.Classifier
	if cfg.BedrockModelID != "" {
		classifier = archive.NewClassifier(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID, logger)
	}
	archiver := archive.NewTranscriptArchiver(chatLog,
		archive.NewStore(s3.NewFromConfig(awsCfg, mainconfig.S3Options(cfg)...), cfg.ArchiveBucket, logger),
		classifier, logger)
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() { _ = sqlDB.Close() }()
	adminHandler := admin.NewHandler(sqlDB, logger,
		admin.WithArchiver(archiver),
		admin.WithWhatsApp(whatsAppStore),
		admin.WithSessionCounter(webChatHandler),
		admin.WithGatherer(gatherer),
	)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		WebChatHandler:     webChatHandler,
		AttendanceHandler:  attendance.NewHandler(attendance.NewPostgresRepository(pool), doctors, alerter, logger),
		WhatsAppHandler:    messaging.NewHandler(whatsAppStore, cfg.TwilioWebhookSecret(), logger),
		EmailHandler:       notify.NewHandler(emailSender, logger),
		InquiriesHandler:   inquiries.NewHandler(inquiries.NewPostgresRepository(pool), logger),
		AdminHandler:       adminHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		Ready:              pool.Ping,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	// Two completion rounds can take most of a minute.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2*cfg.CompletionTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
