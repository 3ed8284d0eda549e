package services

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	ws "github.com/lumeboard/lumeboard/backend/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageAfterClientDisconnect(t *testing.T) {
	client := &ws.Client{Send: make(chan []byte), ConversationID: "conv-1"}
	close(client.Send)

	p := NewChatProcessor(nil, nil, nil)
	assert.NotPanics(t, func() {
		p.sendMessage(client, "typing", "")
	})
}

func TestProcessTextMessageSkipsDebitWithoutAssistant(t *testing.T) {
	repo, mock := newMockRepository(t)
	billing := NewBillingService(repo, &Config{})
	p := NewChatProcessor(nil, billing, repo)

	client := &ws.Client{
		Send:           make(chan []byte, 4),
		UserID:         "user-1",
		ConversationID: "conv-1",
	}

	mock.ExpectQuery(`SELECT \* FROM "conversations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "agent_id", "title", "status"}).
			AddRow("conv-1", "user-1", "agent-1", "", "active"))
	// conversation agent preload, then the agent lookup itself
	mock.ExpectQuery(`SELECT \* FROM "agents"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "personality"}).
			AddRow("agent-1", "Aria", "Warm"))
	mock.ExpectQuery(`SELECT \* FROM "agents"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "personality"}).
			AddRow("agent-1", "Aria", "Warm"))
	mock.ExpectQuery(`SELECT \* FROM "chat_messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "chat_messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("msg-1"))

	p.ProcessTextMessage(client, "hello")

	// The error frame is sent and no ledger statement was ever issued
	require.Len(t, client.Send, 1)
	frame := <-client.Send
	assert.Contains(t, string(frame), "AI service not available")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundCreditsAppendsPositiveEntry(t *testing.T) {
	repo, mock := newMockRepository(t)
	billing := NewBillingService(repo, &Config{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "credit_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "delta", "balance", "reason", "reference"}).
			AddRow("entry-1", "user-1", -1, 2, "chat_message", "conv-1"))
	mock.ExpectQuery(`INSERT INTO "credit_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("entry-2"))
	mock.ExpectCommit()

	balance, err := billing.RefundCredits(context.Background(), "user-1", ChatReplyCost, "chat_refund", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
