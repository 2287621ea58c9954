package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/docconnect-ai/internal/conversation"
	appconfig "github.com/wolfman30/docconnect-ai/internal/config"
	"github.com/wolfman30/docconnect-ai/internal/messaging"
	"github.com/wolfman30/docconnect-ai/internal/observability/metrics"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// connectPostgresPool opens a pgx pool, returning nil when url is empty or
// the database is unreachable.
func connectPostgresPool(ctx context.Context, url string, logger *logging.Logger) *pgxpool.Pool {
	if url == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

func newRedisClient(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

// setupChatLog picks the chat history backend. Redis is used only when
// configured and reachable; otherwise the Postgres table serves history.
func setupChatLog(ctx context.Context, cfg *appconfig.Config, pool *pgxpool.Pool, logger *logging.Logger) (conversation.ChatLog, func()) {
	noop := func() {}
	if cfg.ChatHistoryBackend == "redis" {
		client := newRedisClient(cfg)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			logger.Info("chat history backend", "backend", "redis", "addr", cfg.RedisAddr)
			return conversation.NewRedisChatLog(client, cfg.ChatHistoryTTL), func() { _ = client.Close() }
		}
		logger.Warn("redis unavailable; falling back to postgres chat log", "error", err)
		_ = client.Close()
	}
	if pool == nil {
		return nil, noop
	}
	logger.Info("chat history backend", "backend", "postgres")
	return conversation.NewPostgresChatLog(pool), noop
}

// buildProviderCompleter returns the completer for one provider name.
func buildProviderCompleter(ctx context.Context, provider string, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) conversation.Completer {
	switch provider {
	case "bedrock":
		return conversation.NewBedrockCompleter(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	case "gemini":
		completer, err := conversation.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err == nil {
			return completer
		}
		// Keep serving; OpenRouter reports the missing key per request.
		logger.Error("gemini completer unavailable", "error", err)
	}
	return conversation.NewOpenRouterClient(conversation.OpenRouterConfig{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Model:   cfg.OpenRouterModel,
		Referer: cfg.PublicBaseURL,
	})
}

// buildCompleter wires the primary provider and an optional fallback.
func buildCompleter(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) conversation.Completer {
	primary := buildProviderCompleter(ctx, cfg.LLMProvider, cfg, awsCfg, logger)
	if cfg.LLMFallbackProvider == "" || cfg.LLMFallbackProvider == cfg.LLMProvider {
		return primary
	}
	fallback := buildProviderCompleter(ctx, cfg.LLMFallbackProvider, cfg, awsCfg, logger)
	logger.Info("completion fallback enabled", "primary", cfg.LLMProvider, "fallback", cfg.LLMFallbackProvider)
	return conversation.NewFallbackCompleter(primary, fallback, logger)
}

// setupTwilio returns a WhatsApp sender when alerts are fully configured.
func setupTwilio(cfg *appconfig.Config, logger *logging.Logger) *messaging.TwilioSender {
	if !cfg.WhatsAppAlertsEnabled() {
		logger.Warn("whatsapp alerts disabled; twilio settings incomplete")
		return nil
	}
	return messaging.NewTwilioSender(messaging.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioWhatsAppFrom,
		AlertTo:    cfg.WhatsAppToNumber,
	}, logger)
}

// setupMetrics registers collectors on a dedicated registry and returns the
// /metrics handler.
func setupMetrics() (http.Handler, prometheus.Gatherer, *metrics.ChatMetrics, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chat := metrics.NewChatMetrics(reg)
	booking := metrics.NewBookingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), reg, chat, booking
}
