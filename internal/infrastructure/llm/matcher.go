// Package llm implements the AI relevance matcher on top of OpenAI-compatible
// chat-completion APIs. Model output is untrusted free text; it is parsed
// tolerantly and validated strictly.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ProspectPulse/internal/config"
	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/faults"
	"ProspectPulse/internal/ports"
)

// Matcher implements ports.RelevanceMatcher backed by OpenAI-compatible APIs.
type Matcher struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.RelevanceMatcher = (*Matcher)(nil)

// NewMatcher builds a matcher from configuration.
func NewMatcher(cfg config.MatcherConfig) *Matcher {
	return &Matcher{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Match asks the model to rank the candidate contacts by relevance to the
// target company. Any response that does not contain a valid JSON array of
// match rows is surfaced as faults.ErrMalformedResponse; the caller treats
// that as zero matches for the item.
func (m *Matcher) Match(ctx context.Context, companyDomain string, candidates []ports.CandidateSummary) ([]domain.RelevanceMatch, error) {
	if m.apiKey == "" || m.endpoint == "" || m.model == "" {
		return nil, faults.Wrap(faults.ErrConfiguration, "matcher", "endpoint/model/api key", nil)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{
		"model":       m.model,
		"temperature": 0,
		"messages": []map[string]string{
			{"role": "system", "content": m.systemPrompt},
			{"role": "user", "content": buildUserPrompt(companyDomain, candidates)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matcher payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matcher request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, faults.Wrap(faults.ErrRateLimited, "matcher", "chat completion", nil)
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, faults.Wrap(faults.ErrQuotaExhausted, "matcher", "chat completion", nil)
	case resp.StatusCode >= http.StatusBadRequest:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("matcher error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, faults.Wrap(faults.ErrMalformedResponse, "matcher", "response envelope", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, faults.Wrap(faults.ErrMalformedResponse, "matcher", "empty choices", nil)
	}

	return ParseMatches(parsed.Choices[0].Message.Content)
}

type matchRow struct {
	Name           string `json:"name"`
	MatchType      string `json:"match_type"`
	RelevanceScore int    `json:"relevance_score"`
	Reasoning      string `json:"reasoning"`
}

// ParseMatches extracts the JSON array substring from free-form model output
// and validates every row against the strict schema: name non-empty,
// relevance in [0,100], known match type. Any violation invalidates the whole
// response; partial recovery is never attempted.
func ParseMatches(content string) ([]domain.RelevanceMatch, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, faults.Wrap(faults.ErrMalformedResponse, "matcher", "no JSON array in output", nil)
	}

	var rows []matchRow
	if err := json.Unmarshal([]byte(content[start:end+1]), &rows); err != nil {
		return nil, faults.Wrap(faults.ErrMalformedResponse, "matcher", "decode match rows", err)
	}

	matches := make([]domain.RelevanceMatch, 0, len(rows))
	for i, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			return nil, faults.Wrap(faults.ErrMalformedResponse, "matcher", fmt.Sprintf("row %d: empty name", i), nil)
		}
		if row.RelevanceScore < 0 || row.RelevanceScore > 100 {
			return nil, faults.Wrap(faults.ErrMalformedResponse, "matcher", fmt.Sprintf("row %d: relevance %d out of range", i, row.RelevanceScore), nil)
		}
		kind, ok := matchKind(row.MatchType)
		if !ok {
			return nil, faults.Wrap(faults.ErrMalformedResponse, "matcher", fmt.Sprintf("row %d: unknown match type %q", i, row.MatchType), nil)
		}
		matches = append(matches, domain.RelevanceMatch{
			Name:           name,
			MatchType:      kind,
			RelevanceScore: row.RelevanceScore,
			Reasoning:      strings.TrimSpace(row.Reasoning),
		})
	}

	return matches, nil
}

func matchKind(value string) (domain.PathKind, bool) {
	switch domain.PathKind(strings.TrimSpace(strings.ToLower(value))) {
	case domain.PathCurrentEmployee:
		return domain.PathCurrentEmployee, true
	case domain.PathFormerEmployee:
		return domain.PathFormerEmployee, true
	case domain.PathAlumni:
		return domain.PathAlumni, true
	case domain.PathAISuggested, "":
		return domain.PathAISuggested, true
	default:
		return "", false
	}
}

func buildUserPrompt(companyDomain string, candidates []ports.CandidateSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target company: %s\n\nContacts:\n", companyDomain)
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s | %s | %s | strength %d\n", c.Name, c.Title, c.CompanyName, c.ConnectionStrength)
	}
	b.WriteString("\nAnswer with a JSON array of objects with keys name, match_type (current-employee, former-employee, alumni or ai-suggested), relevance_score (0-100) and reasoning.")
	return b.String()
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You match a target company to the most relevant contacts from the provided list and answer with JSON only."
	}
	return prompt
}
