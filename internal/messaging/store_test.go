package messaging

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveInbound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	msg := InboundMessage{MessageSID: "SM1", From: "whatsapp:+15551234567", To: "whatsapp:+14155238886", Body: "hello"}
	mock.ExpectExec(`ON CONFLICT \(message_sid\) DO NOTHING`).
		WithArgs(pgxmock.AnyArg(), msg.From, msg.To, msg.Body, msg.MessageSID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO whatsapp_chats`).
		WithArgs(pgxmock.AnyArg(), msg.From, msg.To, msg.Body, msg.MessageSID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	store := NewStore(mock)
	inserted, err := store.SaveInbound(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.SaveInbound(context.Background(), msg)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreConversation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := time.Date(2025, 6, 16, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM whatsapp_chats`).
		WithArgs("whatsapp:+15551234567", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "from_number", "to_number", "message_body", "message_sid", "created_at"}).
			AddRow("row-1", "whatsapp:+15551234567", "whatsapp:+14155238886", "hello", "SM1", ts))

	msgs, err := NewStore(mock).Conversation(context.Background(), "+15551234567", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "SM1", msgs[0].MessageSID)
	assert.Equal(t, ts, msgs[0].CreatedAt)
}

func TestNewStoreNil(t *testing.T) {
	assert.Nil(t, NewStore(nil))
}
