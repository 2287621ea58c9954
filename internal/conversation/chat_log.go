package conversation

import (
	"context"
	"time"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// LoggedMessage is one persisted chat line.
type LoggedMessage struct {
	SessionID string    `json:"session_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"message_content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatLog persists the per-session message log. History returns messages in
// ascending timestamp order.
type ChatLog interface {
	History(ctx context.Context, sessionID string) ([]LoggedMessage, error)
	Append(ctx context.Context, sessionID, sender, content string) error
}

// historyToMessages maps persisted rows to completion messages. Anything not
// sent by the user is treated as the assistant.
func historyToMessages(history []LoggedMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		role := ChatRoleAssistant
		if m.Sender == SenderUser {
			role = ChatRoleUser
		}
		out = append(out, ChatMessage{Role: role, Content: m.Content})
	}
	return out
}
