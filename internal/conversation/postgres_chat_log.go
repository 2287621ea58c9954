package conversation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var conversationTracer = otel.Tracer("docconnect.internal.conversation")

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresChatLog stores chat lines in the chatbot_messages table.
type PostgresChatLog struct {
	db pgxQuerier
}

func NewPostgresChatLog(db pgxQuerier) *PostgresChatLog {
	if db == nil {
		panic("conversation: pgx pool required for chat log")
	}
	return &PostgresChatLog{db: db}
}

func (l *PostgresChatLog) History(ctx context.Context, sessionID string) ([]LoggedMessage, error) {
	ctx, span := conversationTracer.Start(ctx, "conversation.chat_log.history")
	defer span.End()
	span.SetAttributes(attribute.String("docconnect.session_id", sessionID))

	rows, err := l.db.Query(ctx, `
		SELECT session_id, sender, message_content, timestamp
		FROM chatbot_messages
		WHERE session_id = $1
		ORDER BY timestamp ASC
	`, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: query chat history: %w", err)
	}
	defer rows.Close()

	var history []LoggedMessage
	for rows.Next() {
		var m LoggedMessage
		if err := rows.Scan(&m.SessionID, &m.Sender, &m.Content, &m.Timestamp); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("conversation: scan chat message: %w", err)
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: iterate chat history: %w", err)
	}
	return history, nil
}

func (l *PostgresChatLog) Append(ctx context.Context, sessionID, sender, content string) error {
	ctx, span := conversationTracer.Start(ctx, "conversation.chat_log.append")
	defer span.End()

	_, err := l.db.Exec(ctx, `
		INSERT INTO chatbot_messages (session_id, sender, message_content)
		VALUES ($1, $2, $3)
	`, sessionID, sender, content)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: insert chat message: %w", err)
	}
	return nil
}
