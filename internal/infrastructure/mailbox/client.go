// Package mailbox implements the HTTP client for the mailbox-sync provider.
// It only moves messages; interpreting them (signature mining, per-sender
// aggregation) happens in the ingest mailbox source.
package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ProspectPulse/internal/faults"
	"ProspectPulse/internal/infrastructure/ingest"
)

const defaultTimeout = 30 * time.Second

// Client talks to the mailbox-sync provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ ingest.MessageLister = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type messageRow struct {
	From     string    `json:"from"`
	SentAt   time.Time `json:"sent_at"`
	HTMLBody string    `json:"html_body"`
}

// Messages lists the mailbox items sent after since. 429 asks the caller to
// back off; a 402-class status means the provider quota is spent.
func (c *Client) Messages(ctx context.Context, mailbox string, since time.Time) ([]ingest.Message, error) {
	params := url.Values{}
	params.Set("mailbox", mailbox)
	if !since.IsZero() {
		params.Set("since", since.UTC().Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/messages?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusPaymentRequired:
		return nil, faults.Wrap(faults.ErrQuotaExhausted, "mailbox", "messages", nil)
	case http.StatusTooManyRequests:
		return nil, faults.Wrap(faults.ErrRateLimited, "mailbox", "messages", nil)
	default:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var rows []messageRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, faults.Wrap(faults.ErrMalformedResponse, "mailbox", "messages", err)
	}

	messages := make([]ingest.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, ingest.Message{
			From:     row.From,
			SentAt:   row.SentAt,
			HTMLBody: row.HTMLBody,
		})
	}
	return messages, nil
}
