// Package enrich implements the HTTP client for the third-party
// person-enrichment provider.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/faults"
	"ProspectPulse/internal/ports"
)

const defaultTimeout = 15 * time.Second

// Client talks to the person-enrichment provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ ports.EnrichmentProvider = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type enrichRequest struct {
	Email       string `json:"email,omitempty"`
	ProfileURL  string `json:"profile_url,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

type enrichResponse struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	ProfileURL    string `json:"profile_url"`
	Title         string `json:"title"`
	CompanyName   string `json:"company_name"`
	CompanyDomain string `json:"company_domain"`
	Phone         string `json:"phone"`
}

// Enrich looks the person up by whatever identifiers the query carries.
// 404 means the provider has no data (faults.ErrNotFound, not a failure);
// a 402-class status means the account quota is spent, which is fatal for the
// whole run (faults.ErrQuotaExhausted). 429 asks the caller to back off.
func (c *Client) Enrich(ctx context.Context, query ports.EnrichmentQuery) (*domain.PersonRecord, error) {
	if query.Email == "" && query.ProfileURL == "" && (query.FullName == "" || query.CompanyName == "") {
		return nil, faults.Wrap(faults.ErrNotFound, "enrich", "no usable identifiers", nil)
	}

	body, err := json.Marshal(enrichRequest{
		Email:       query.Email,
		ProfileURL:  query.ProfileURL,
		FullName:    query.FullName,
		CompanyName: query.CompanyName,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal enrich payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/enrich", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
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
	case http.StatusNotFound:
		return nil, faults.Wrap(faults.ErrNotFound, "enrich", "person", nil)
	case http.StatusPaymentRequired:
		return nil, faults.Wrap(faults.ErrQuotaExhausted, "enrich", "person", nil)
	case http.StatusTooManyRequests:
		return nil, faults.Wrap(faults.ErrRateLimited, "enrich", "person", nil)
	default:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var parsed enrichResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, faults.Wrap(faults.ErrMalformedResponse, "enrich", "person", err)
	}

	return &domain.PersonRecord{
		FullName:      parsed.FullName,
		Email:         parsed.Email,
		ProfileURL:    parsed.ProfileURL,
		Title:         parsed.Title,
		CompanyName:   parsed.CompanyName,
		CompanyDomain: parsed.CompanyDomain,
		Phone:         parsed.Phone,
	}, nil
}
