package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Data store (Supabase-compatible Postgres). DatabaseURL is the direct
	// connection string; the Supabase URL and key tiers are kept for
	// deployments that proxy through the hosted REST layer.
	DatabaseURL            string
	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseAnonKey        string

	// Completion API
	LLMProvider         string
	LLMFallbackProvider string
	OpenRouterAPIKey    string
	OpenRouterBaseURL   string
	OpenRouterModel     string
	BedrockModelID      string
	GeminiAPIKey        string
	GeminiModel         string
	CompletionTimeout   time.Duration

	// Chat log
	ChatHistoryBackend  string
	ChatHistoryTTL      time.Duration
	ChatPersistUserTurn bool
	RedisAddr           string
	RedisPassword       string
	RedisTLS            bool

	// Facts rendered into the assistant system prompt
	HospitalName     string
	HospitalHours    string
	HospitalLocation string
	HospitalPhone    string
	HospitalEmail    string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	ArchiveBucket       string

	// Twilio WhatsApp alerts
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
	WhatsAppToNumber   string

	// TwilioVerifySignature turns on X-Twilio-Signature checks for the
	// inbound WhatsApp webhook.
	TwilioVerifySignature bool

	// Email
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	// HTTP
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	supabaseURL := getEnv("SUPABASE_URL", "")
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL:            getEnv("DATABASE_URL", getEnv("SUPABASE_DB_URL", "")),
		SupabaseURL:            supabaseURL,
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseAnonKey:        getEnv("SUPABASE_ANON_KEY", ""),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "openrouter"))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		OpenRouterAPIKey:    getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:   getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:     getEnv("OPENROUTER_MODEL", "mistralai/mistral-7b-instruct"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		CompletionTimeout:   getEnvAsDuration("COMPLETION_TIMEOUT", 30*time.Second),

		ChatHistoryBackend:  strings.ToLower(strings.TrimSpace(getEnv("CHAT_HISTORY_BACKEND", "postgres"))),
		ChatHistoryTTL:      getEnvAsDuration("CHAT_HISTORY_TTL", 30*24*time.Hour),
		ChatPersistUserTurn: getEnvAsBool("CHAT_PERSIST_USER_TURN", true),
		RedisAddr:           getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisTLS:            getEnvAsBool("REDIS_TLS", false),

		HospitalName:     getEnv("HOSPITAL_NAME", "DocConnect Hospital"),
		HospitalHours:    getEnv("HOSPITAL_HOURS", "Monday to Saturday, 8:00 AM - 8:00 PM; emergency services 24/7"),
		HospitalLocation: getEnv("HOSPITAL_LOCATION", "123 Health Avenue, Medical District"),
		HospitalPhone:    getEnv("HOSPITAL_PHONE", "+1 (555) 123-4567"),
		HospitalEmail:    getEnv("HOSPITAL_EMAIL", "support@docconnect.example"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		ArchiveBucket:       getEnv("ARCHIVE_BUCKET", ""),

		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", ""),
		WhatsAppToNumber:   getEnv("WHATSAPP_TO_NUMBER", ""),

		TwilioVerifySignature: getEnvAsBool("TWILIO_VERIFY_SIGNATURE", false),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "DocConnect"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// WhatsAppAlertsEnabled reports whether every Twilio setting needed for
// attendance alerts is present.
func (c *Config) WhatsAppAlertsEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppFrom != "" && c.WhatsAppToNumber != ""
}

// TwilioWebhookSecret returns the auth token used to verify inbound webhook
// signatures, or "" when verification is off.
func (c *Config) TwilioWebhookSecret() string {
	if !c.TwilioVerifySignature {
		return ""
	}
	return c.TwilioAuthToken
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
