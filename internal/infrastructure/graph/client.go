// Package graph implements the HTTP client for the professional-network
// graph provider: company search for path finding and owner-connection
// listing for the network ingestion source.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ProspectPulse/internal/faults"
	"ProspectPulse/internal/ports"
)

const defaultTimeout = 20 * time.Second

// Client talks to the network-graph provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ ports.GraphProvider = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type searchResponse struct {
	Profiles []struct {
		Name          string `json:"name"`
		Title         string `json:"title"`
		CompanyDomain string `json:"company_domain"`
		Connections   []struct {
			ConnectorID   string `json:"connector_id"`
			ConnectorName string `json:"connector_name"`
			Strength      int    `json:"strength"`
			Kind          string `json:"kind"`
			SharedContext string `json:"shared_context"`
		} `json:"connections"`
	} `json:"profiles"`
	NextPage int `json:"next_page"`
}

// Search returns every profile the provider knows at the given company
// domain, following pagination. A provider 429 surfaces as
// faults.ErrRateLimited so the batch loop can back off and retry.
func (c *Client) Search(ctx context.Context, companyDomain string) ([]ports.GraphProfile, error) {
	var profiles []ports.GraphProfile

	page := 1
	for page > 0 {
		query := url.Values{}
		query.Set("domain", companyDomain)
		query.Set("page", strconv.Itoa(page))

		var resp searchResponse
		if err := c.get(ctx, "/search", query, &resp); err != nil {
			return nil, fmt.Errorf("graph search page %d: %w", page, err)
		}

		for _, p := range resp.Profiles {
			profile := ports.GraphProfile{
				Name:          p.Name,
				Title:         p.Title,
				CompanyDomain: p.CompanyDomain,
			}
			for _, conn := range p.Connections {
				profile.Connections = append(profile.Connections, ports.GraphConnection{
					ConnectorID:   conn.ConnectorID,
					ConnectorName: conn.ConnectorName,
					Strength:      conn.Strength,
					Kind:          conn.Kind,
					SharedContext: conn.SharedContext,
				})
			}
			profiles = append(profiles, profile)
		}

		page = resp.NextPage
	}

	return profiles, nil
}

// Connection is one owned first-degree edge as reported by the provider,
// consumed by the network ingestion source.
type Connection struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	ProfileURL    string    `json:"profile_url"`
	Title         string    `json:"title"`
	CompanyName   string    `json:"company_name"`
	CompanyDomain string    `json:"company_domain"`
	Strength      int       `json:"strength"`
	ConnectedAt   time.Time `json:"connected_at"`
}

type connectionsResponse struct {
	Connections []Connection `json:"connections"`
	NextPage    int          `json:"next_page"`
}

// Connections lists the owner's first-degree network updated since the given
// time, following pagination.
func (c *Client) Connections(ctx context.Context, ownerID string, since time.Time) ([]Connection, error) {
	var out []Connection

	page := 1
	for page > 0 {
		query := url.Values{}
		query.Set("owner", ownerID)
		query.Set("page", strconv.Itoa(page))
		if !since.IsZero() {
			query.Set("since", since.UTC().Format(time.RFC3339))
		}

		var resp connectionsResponse
		if err := c.get(ctx, "/connections", query, &resp); err != nil {
			return nil, fmt.Errorf("graph connections page %d: %w", page, err)
		}

		out = append(out, resp.Connections...)
		page = resp.NextPage
	}

	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return faults.RateLimited("graph", path, retryAfterDelay(resp))
	case resp.StatusCode == http.StatusPaymentRequired:
		return faults.Wrap(faults.ErrQuotaExhausted, "graph", path, nil)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return faults.Wrap(faults.ErrMalformedResponse, "graph", path, err)
	}

	return nil
}

// retryAfterDelay reads the 429 Retry-After header, in either its
// delay-seconds or HTTP-date form. Zero when absent or unparseable.
func retryAfterDelay(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
