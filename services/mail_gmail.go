package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const gmailBaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"

// GmailProvider talks to the Gmail REST API with the user's OAuth token
type GmailProvider struct {
	token  *oauth2.Token
	client *http.Client
}

type gmailMessageRef struct {
	ID string `json:"id"`
}

type gmailListResponse struct {
	Messages []gmailMessageRef `json:"messages"`
}

type gmailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type gmailMessage struct {
	ID           string   `json:"id"`
	Snippet      string   `json:"snippet"`
	LabelIDs     []string `json:"labelIds"`
	InternalDate string   `json:"internalDate"`
	Payload      struct {
		Headers []gmailHeader `json:"headers"`
	} `json:"payload"`
}

func NewGmailProvider(token *oauth2.Token) *GmailProvider {
	return &GmailProvider{
		token: token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (g *GmailProvider) do(ctx context.Context, method, url string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	g.token.SetAuthHeader(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gmail API error: %d - %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (g *GmailProvider) ListMessages(ctx context.Context, limit int) ([]MailMessage, error) {
	listURL := fmt.Sprintf("%s/messages?maxResults=%d&labelIds=INBOX", gmailBaseURL, limit)

	var list gmailListResponse
	if err := g.do(ctx, "GET", listURL, nil, &list); err != nil {
		return nil, err
	}

	messages := make([]MailMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		detailURL := fmt.Sprintf("%s/messages/%s?format=metadata&metadataHeaders=From&metadataHeaders=Subject", gmailBaseURL, ref.ID)

		var detail gmailMessage
		if err := g.do(ctx, "GET", detailURL, nil, &detail); err != nil {
			return nil, err
		}

		messages = append(messages, g.normalize(&detail))
	}

	return messages, nil
}

func (g *GmailProvider) normalize(m *gmailMessage) MailMessage {
	msg := MailMessage{
		ID:      m.ID,
		Snippet: m.Snippet,
	}

	for _, h := range m.Payload.Headers {
		switch h.Name {
		case "From":
			msg.From = h.Value
		case "Subject":
			msg.Subject = h.Value
		}
	}

	if ms, err := strconv.ParseInt(m.InternalDate, 10, 64); err == nil {
		msg.Date = time.UnixMilli(ms)
	}

	for _, label := range m.LabelIDs {
		if label == "UNREAD" {
			msg.Unread = true
			break
		}
	}

	return msg
}

func (g *GmailProvider) BulkAction(ctx context.Context, action string, messageIDs []string) (*BulkActionResult, error) {
	result := &BulkActionResult{
		Failed: make(map[string]string),
	}

	for _, id := range messageIDs {
		var err error
		switch action {
		case MailActionArchive:
			body, _ := json.Marshal(map[string][]string{"removeLabelIds": {"INBOX"}})
			err = g.do(ctx, "POST", fmt.Sprintf("%s/messages/%s/modify", gmailBaseURL, id), body, nil)
		case MailActionMarkRead:
			body, _ := json.Marshal(map[string][]string{"removeLabelIds": {"UNREAD"}})
			err = g.do(ctx, "POST", fmt.Sprintf("%s/messages/%s/modify", gmailBaseURL, id), body, nil)
		case MailActionDelete:
			err = g.do(ctx, "POST", fmt.Sprintf("%s/messages/%s/trash", gmailBaseURL, id), nil, nil)
		default:
			err = fmt.Errorf("invalid action: %s", action)
		}

		if err != nil {
			result.Failed[id] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	return result, nil
}
