package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by the store.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// StoredMessage is a row of whatsapp_chats.
type StoredMessage struct {
	ID string `json:"id"`
	InboundMessage
	CreatedAt time.Time `json:"created_at"`
}

// Store persists inbound WhatsApp messages in Postgres.
type Store struct {
	db Querier
}

// NewStore returns nil when no database is configured.
func NewStore(db Querier) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// SaveInbound inserts the message. Twilio retries webhooks, so a repeated
// message SID is ignored and reported with inserted=false.
func (s *Store) SaveInbound(ctx context.Context, msg InboundMessage) (bool, error) {
	query := `
		INSERT INTO whatsapp_chats (id, from_number, to_number, message_body, message_sid)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message_sid) DO NOTHING
	`
	tag, err := s.db.Exec(ctx, query, uuid.New(), msg.From, msg.To, msg.Body, msg.MessageSID)
	if err != nil {
		return false, fmt.Errorf("messaging: save whatsapp chat: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Conversation returns messages exchanged with a number, oldest first.
func (s *Store) Conversation(ctx context.Context, number string, limit int) ([]StoredMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id::text, from_number, to_number, message_body, message_sid, created_at
		FROM whatsapp_chats
		WHERE from_number = $1 OR to_number = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, WhatsAppAddress(number), limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: query whatsapp chats: %w", err)
	}
	defer rows.Close()

	out := []StoredMessage{}
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Body, &m.MessageSID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("messaging: scan whatsapp chat: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("messaging: iterate whatsapp chats: %w", err)
	}
	return out, nil
}
