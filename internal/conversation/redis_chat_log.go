package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const defaultChatLogTTL = 30 * 24 * time.Hour

// RedisChatLog keeps each session as a Redis list of JSON lines. The key
// expiry is refreshed on every append.
type RedisChatLog struct {
	redis  *redis.Client
	ttl    time.Duration
	now    func() time.Time
	tracer trace.Tracer
}

func NewRedisChatLog(client *redis.Client, ttl time.Duration) *RedisChatLog {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultChatLogTTL
	}
	return &RedisChatLog{redis: client, ttl: ttl, now: time.Now, tracer: conversationTracer}
}

func (l *RedisChatLog) History(ctx context.Context, sessionID string) ([]LoggedMessage, error) {
	ctx, span := l.tracer.Start(ctx, "conversation.redis_chat_log.history")
	defer span.End()

	items, err := l.redis.LRange(ctx, chatLogKey(sessionID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}

	history := make([]LoggedMessage, 0, len(items))
	for _, item := range items {
		var m LoggedMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("conversation: failed to decode history: %w", err)
		}
		history = append(history, m)
	}
	return history, nil
}

func (l *RedisChatLog) Append(ctx context.Context, sessionID, sender, content string) error {
	ctx, span := l.tracer.Start(ctx, "conversation.redis_chat_log.append")
	defer span.End()

	data, err := json.Marshal(LoggedMessage{
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		Timestamp: l.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("conversation: failed to marshal chat message: %w", err)
	}

	key := chatLogKey(sessionID)
	_, err = l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.Expire(ctx, key, l.ttl)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist chat message: %w", err)
	}
	return nil
}

func chatLogKey(sessionID string) string {
	return fmt.Sprintf("chat:session:%s", sessionID)
}
