package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// IMAPProvider serves plain IMAP mailboxes over TLS
type IMAPProvider struct {
	host     string
	port     int
	username string
	password string
}

func NewIMAPProvider(host string, port int, username, password string) *IMAPProvider {
	return &IMAPProvider{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// connect dials, logs in and selects INBOX
func (p *IMAPProvider) connect() (*client.Client, *imap.MailboxStatus, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", p.host, p.port), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial imap server: %w", err)
	}

	if err := c.Login(p.username, p.password); err != nil {
		c.Logout()
		return nil, nil, fmt.Errorf("imap login failed: %w", err)
	}

	mbox, err := c.Select("INBOX", false)
	if err != nil {
		c.Logout()
		return nil, nil, fmt.Errorf("failed to select inbox: %w", err)
	}

	return c, mbox, nil
}

func (p *IMAPProvider) ListMessages(ctx context.Context, limit int) ([]MailMessage, error) {
	c, mbox, err := p.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if mbox.Messages == 0 {
		return []MailMessage{}, nil
	}

	from := uint32(1)
	to := mbox.Messages
	if mbox.Messages > uint32(limit) {
		from = mbox.Messages - uint32(limit) + 1
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(from, to)

	messages := make(chan *imap.Message, limit)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid}, messages)
	}()

	var result []MailMessage
	for msg := range messages {
		if msg.Envelope == nil {
			continue
		}

		item := MailMessage{
			ID:      strconv.FormatUint(uint64(msg.Uid), 10),
			Subject: msg.Envelope.Subject,
			Date:    msg.Envelope.Date,
			Unread:  true,
		}

		if len(msg.Envelope.From) > 0 {
			addr := msg.Envelope.From[0]
			if addr.PersonalName != "" {
				item.From = fmt.Sprintf("%s <%s>", addr.PersonalName, addr.Address())
			} else {
				item.From = addr.Address()
			}
		}

		for _, flag := range msg.Flags {
			if flag == imap.SeenFlag {
				item.Unread = false
				break
			}
		}

		result = append(result, item)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch failed: %w", err)
	}

	// Newest first
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

func (p *IMAPProvider) BulkAction(ctx context.Context, action string, messageIDs []string) (*BulkActionResult, error) {
	c, _, err := p.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	result := &BulkActionResult{
		Failed: make(map[string]string),
	}

	needExpunge := false
	for _, id := range messageIDs {
		uid, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			result.Failed[id] = "invalid message id"
			continue
		}

		seqset := new(imap.SeqSet)
		seqset.AddNum(uint32(uid))

		switch action {
		case MailActionMarkRead:
			item := imap.FormatFlagsOp(imap.AddFlags, true)
			err = c.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil)
		case MailActionDelete:
			item := imap.FormatFlagsOp(imap.AddFlags, true)
			if err = c.UidStore(seqset, item, []interface{}{imap.DeletedFlag}, nil); err == nil {
				needExpunge = true
			}
		case MailActionArchive:
			if err = c.UidCopy(seqset, "Archive"); err == nil {
				item := imap.FormatFlagsOp(imap.AddFlags, true)
				if err = c.UidStore(seqset, item, []interface{}{imap.DeletedFlag}, nil); err == nil {
					needExpunge = true
				}
			}
		default:
			err = fmt.Errorf("invalid action: %s", action)
		}

		if err != nil {
			result.Failed[id] = strings.TrimSpace(err.Error())
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	if needExpunge {
		if err := c.Expunge(nil); err != nil {
			return nil, fmt.Errorf("imap expunge failed: %w", err)
		}
	}

	return result, nil
}
