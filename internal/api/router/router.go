package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/docconnect-ai/internal/admin"
	"github.com/wolfman30/docconnect-ai/internal/attendance"
	"github.com/wolfman30/docconnect-ai/internal/conversation"
	httpmiddleware "github.com/wolfman30/docconnect-ai/internal/http/middleware"
	"github.com/wolfman30/docconnect-ai/internal/inquiries"
	"github.com/wolfman30/docconnect-ai/internal/messaging"
	"github.com/wolfman30/docconnect-ai/internal/notify"
	"github.com/wolfman30/docconnect-ai/internal/webchat"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes unmounted.
type Config struct {
	Logger            *logging.Logger
	ChatHandler       *conversation.Handler
	WebChatHandler    *webchat.Handler
	AttendanceHandler *attendance.Handler
	WhatsAppHandler   *messaging.Handler
	EmailHandler      *notify.Handler
	InquiriesHandler  *inquiries.Handler
	AdminHandler      *admin.Handler
	AdminAuthSecret   string
	MetricsHandler    http.Handler

	// Ready is probed by /health when set; an error yields 503.
	Ready func(ctx context.Context) error

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthHandler(cfg.Ready))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Chat endpoints drive paid completion calls and are limited per IP.
	r.Group(func(chat chi.Router) {
		if cfg.RateLimitRPS > 0 {
			chat.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}
		if cfg.ChatHandler != nil {
			chat.Post("/chatbot-ai", cfg.ChatHandler.Chat)
		}
		if cfg.WebChatHandler != nil {
			chat.Get("/chatbot-ai/ws", cfg.WebChatHandler.HandleWebSocket)
			chat.Get("/chatbot-ai/history", cfg.WebChatHandler.HandleHistory)
		}
	})

	if cfg.AttendanceHandler != nil {
		r.Post("/record-attendance", cfg.AttendanceHandler.Record)
	}
	if cfg.WhatsAppHandler != nil {
		r.Post("/receive-whatsapp-message", cfg.WhatsAppHandler.ReceiveWhatsApp)
	}
	if cfg.EmailHandler != nil {
		r.Post("/send-booking-confirmation", cfg.EmailHandler.SendBookingConfirmation)
	}
	if cfg.InquiriesHandler != nil {
		r.Post("/inquiries", cfg.InquiriesHandler.Create)
	}

	if cfg.AdminHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(adminRoutes chi.Router) {
			adminRoutes.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			cfg.AdminHandler.Routes(adminRoutes)
		})
	}

	return r
}

func healthHandler(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
