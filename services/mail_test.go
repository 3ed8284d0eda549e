package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidMailAction(t *testing.T) {
	assert.True(t, ValidMailAction(MailActionArchive))
	assert.True(t, ValidMailAction(MailActionDelete))
	assert.True(t, ValidMailAction(MailActionMarkRead))
	assert.False(t, ValidMailAction(""))
	assert.False(t, ValidMailAction("forward"))
	assert.False(t, ValidMailAction("ARCHIVE"))
}

func TestGmailNormalize(t *testing.T) {
	g := NewGmailProvider(nil)

	m := &gmailMessage{
		ID:           "msg-1",
		Snippet:      "Quarterly report attached",
		LabelIDs:     []string{"INBOX", "UNREAD"},
		InternalDate: "1735689600000",
	}
	m.Payload.Headers = []gmailHeader{
		{Name: "From", Value: "alice@example.com"},
		{Name: "Subject", Value: "Q4 report"},
		{Name: "To", Value: "me@example.com"},
	}

	msg := g.normalize(m)

	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "alice@example.com", msg.From)
	assert.Equal(t, "Q4 report", msg.Subject)
	assert.Equal(t, "Quarterly report attached", msg.Snippet)
	assert.True(t, msg.Unread)
	assert.Equal(t, time.UnixMilli(1735689600000), msg.Date)
}

func TestGmailNormalizeReadMessage(t *testing.T) {
	g := NewGmailProvider(nil)

	m := &gmailMessage{
		ID:       "msg-2",
		LabelIDs: []string{"INBOX"},
	}

	msg := g.normalize(m)

	assert.False(t, msg.Unread)
	assert.True(t, msg.Date.IsZero())
	assert.Empty(t, msg.From)
}
