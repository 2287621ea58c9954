package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

var twilioTracer = otel.Tracer("docconnect.internal.messaging.twilio")

const emptyTwiML = "<Response></Response>"

// InboundStore persists inbound WhatsApp messages.
type InboundStore interface {
	SaveInbound(ctx context.Context, msg InboundMessage) (bool, error)
}

// Handler handles the Twilio WhatsApp webhook.
type Handler struct {
	store         InboundStore
	webhookSecret string
	logger        *logging.Logger
}

// NewHandler creates a webhook handler. When webhookSecret is set, requests
// must carry a valid X-Twilio-Signature.
func NewHandler(store InboundStore, webhookSecret string, logger *logging.Logger) *Handler {
	if store == nil {
		panic("messaging: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, webhookSecret: webhookSecret, logger: logger}
}

// ReceiveWhatsApp handles POST /receive-whatsapp-message.
func (h *Handler) ReceiveWhatsApp(w http.ResponseWriter, r *http.Request) {
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.whatsapp_webhook")
	defer span.End()

	if h.webhookSecret != "" && !ValidateTwilioSignature(r, h.webhookSecret, requestURL(r)) {
		h.logger.Warn("invalid twilio signature")
		span.RecordError(errors.New("invalid twilio signature"))
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	msg, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		span.RecordError(err)
		writeJSONError(w, http.StatusBadRequest, "Missing required Twilio webhook parameters.")
		return
	}
	if !msg.Complete() {
		h.logger.Error("missing required twilio webhook parameters",
			"from", msg.From, "to", msg.To, "message_sid", msg.MessageSID, "has_body", msg.Body != "")
		writeJSONError(w, http.StatusBadRequest, "Missing required Twilio webhook parameters.")
		return
	}
	span.SetAttributes(
		attribute.String("docconnect.twilio.message_sid", msg.MessageSID),
		attribute.String("docconnect.twilio.from", msg.From),
	)

	inserted, err := h.store.SaveInbound(ctx, *msg)
	if err != nil {
		h.logger.Error("failed to save whatsapp chat", "message_sid", msg.MessageSID, "error", err)
		span.RecordError(err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to save WhatsApp chat.")
		return
	}
	if inserted {
		h.logger.Info("whatsapp chat saved", "message_sid", msg.MessageSID, "from", msg.From)
	} else {
		h.logger.Info("duplicate whatsapp webhook ignored", "message_sid", msg.MessageSID)
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(emptyTwiML))
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
