package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/docconnect-ai/internal/conversation"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// ErrDisabled is returned when no archive bucket is configured.
var ErrDisabled = errors.New("archive: not configured")

// ErrEmptySession is returned when a session has no messages.
var ErrEmptySession = errors.New("archive: session has no messages")

// HistorySource reads a session's chat log.
type HistorySource interface {
	History(ctx context.Context, sessionID string) ([]conversation.LoggedMessage, error)
}

// TranscriptArchiver scrubs, classifies and stores chat sessions.
type TranscriptArchiver struct {
	history    HistorySource
	store      *Store
	classifier *Classifier
	now        func() time.Time
	logger     *logging.Logger
}

// NewTranscriptArchiver wires an archiver. classifier may be nil.
func NewTranscriptArchiver(history HistorySource, store *Store, classifier *Classifier, logger *logging.Logger) *TranscriptArchiver {
	if history == nil {
		panic("archive: history source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TranscriptArchiver{history: history, store: store, classifier: classifier, now: time.Now, logger: logger}
}

// Archive builds the transcript for sessionID and writes it to S3.
func (a *TranscriptArchiver) Archive(ctx context.Context, sessionID string) (*ManifestEntry, error) {
	if !a.store.Enabled() {
		return nil, ErrDisabled
	}
	logged, err := a.history.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("archive: load history: %w", err)
	}
	if len(logged) == 0 {
		return nil, ErrEmptySession
	}

	msgs := make([]Message, 0, len(logged))
	for _, m := range logged {
		role := "assistant"
		if m.Sender == conversation.SenderUser {
			role = "user"
		}
		msgs = append(msgs, Message{Role: role, Content: m.Content, Timestamp: m.Timestamp})
	}
	redactions := ScrubMessages(msgs)

	labels, err := a.classifier.Classify(ctx, msgs)
	if err != nil {
		a.logger.Warn("transcript classification failed, using defaults", "error", err, "session_id", sessionID)
		labels = defaultLabels()
	}
	if redactions.Total() > 0 {
		labels.ContainsPHI = true
	}

	outcome := "answered"
	if msgs[len(msgs)-1].Role == "user" {
		outcome = "abandoned"
	}

	transcript := &Transcript{
		Version:         "1.0",
		SessionID:       sessionID,
		ArchivedAt:      a.now().UTC(),
		DurationSeconds: int(msgs[len(msgs)-1].Timestamp.Sub(msgs[0].Timestamp).Seconds()),
		MessageCount:    len(msgs),
		Outcome:         outcome,
		Labels:          *labels,
		Redactions:      redactions,
		Messages:        msgs,
	}
	return a.store.ArchiveTranscript(ctx, transcript)
}
