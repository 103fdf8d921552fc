package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ProspectPulse/internal/config"
	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/faults"
	"ProspectPulse/internal/ports"
)

type memProspects struct {
	prospects []domain.Prospect
	updated   []domain.Prospect
	updateErr error
}

func (m *memProspects) ListByTeam(_ context.Context, teamID string) ([]domain.Prospect, error) {
	var out []domain.Prospect
	for _, p := range m.prospects {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProspects) UpdateScore(_ context.Context, prospect domain.Prospect) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, prospect)
	return nil
}

type stubFinder struct {
	paths map[string][]domain.ConnectionPath
	errs  []error
	calls int
}

func (s *stubFinder) FindPaths(_ context.Context, companyDomain string) ([]domain.ConnectionPath, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return s.paths[companyDomain], nil
}

type stubMatcher struct {
	matches []domain.RelevanceMatch
	err     error
	calls   int
}

func (s *stubMatcher) Match(_ context.Context, _ string, _ []ports.CandidateSummary) ([]domain.RelevanceMatch, error) {
	s.calls++
	return s.matches, s.err
}

func testScorer(prospects *memProspects, contacts *memContacts, finder PathFinder, matcher ports.RelevanceMatcher) *ProspectScorer {
	return NewProspectScorer(ScorerDeps{
		Prospects: prospects,
		Contacts:  contacts,
		Finder:    finder,
		Matcher:   matcher,
		Config: config.SyncConfig{
			MaxRetries:     2,
			CandidateLimit: 50,
			TopPathCount:   3,
		},
		Now:   func() time.Time { return time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC) },
		Sleep: func(context.Context, time.Duration) error { return nil },
	})
}

func TestScoreTeamPersistsScoreAndSnapshot(t *testing.T) {
	t.Parallel()

	prospects := &memProspects{prospects: []domain.Prospect{
		{ID: "p1", TeamID: "team-1", CompanyDomain: "acme.com"},
	}}
	finder := &stubFinder{paths: map[string][]domain.ConnectionPath{
		"acme.com": {
			{ConnectorName: "Ana", Strength: 0.9, Kind: domain.PathCurrentEmployee},
			{ConnectorName: "Ben", Strength: 0.5, Kind: domain.PathAlumni},
			{ConnectorName: "Cal", Strength: 0.4, Kind: domain.PathFormerEmployee},
			{ConnectorName: "Dee", Strength: 0.2, Kind: domain.PathAlumni},
		},
	}}

	scorer := testScorer(prospects, newMemContacts(), finder, nil)
	report, err := scorer.ScoreTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("ScoreTeam error: %v", err)
	}
	if report.Scored != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	if len(prospects.updated) != 1 {
		t.Fatalf("expected one persisted prospect, got %d", len(prospects.updated))
	}
	got := prospects.updated[0]

	// avg 0.5 * 70 = 35, bonus min(4*5, 30) = 20.
	if got.ConnectionScore != 55 {
		t.Fatalf("score = %d, want 55", got.ConnectionScore)
	}
	if got.PathCount != 4 {
		t.Fatalf("path count = %d, want 4", got.PathCount)
	}
	if got.BestConnectorName != "Ana" {
		t.Fatalf("best connector = %q, want Ana", got.BestConnectorName)
	}
	if len(got.TopPaths) != 3 {
		t.Fatalf("snapshot must keep only top paths, got %d", len(got.TopPaths))
	}
	if got.ScoredAt.IsZero() {
		t.Fatal("scored-at must be stamped")
	}
}

func TestScoreTeamNoPathsNoMatcherScoresZero(t *testing.T) {
	t.Parallel()

	prospects := &memProspects{prospects: []domain.Prospect{
		{ID: "p1", TeamID: "team-1", CompanyDomain: "cold.io", ConnectionScore: 77, BestConnectorName: "Stale"},
	}}
	finder := &stubFinder{}

	scorer := testScorer(prospects, newMemContacts(), finder, nil)
	if _, err := scorer.ScoreTeam(context.Background(), "team-1"); err != nil {
		t.Fatalf("ScoreTeam error: %v", err)
	}

	got := prospects.updated[0]
	if got.ConnectionScore != 0 || got.BestConnectorName != "" || got.PathCount != 0 {
		t.Fatalf("stale score must be reset, got %+v", got)
	}
}

func TestScoreTeamFallsBackToAISuggestions(t *testing.T) {
	t.Parallel()

	contacts := newMemContacts(domain.Contact{
		ID: "c1", TeamID: "team-1", FullName: "Maria Flores",
		Title: "CTO", ConnectionStrength: 80,
	})
	prospects := &memProspects{prospects: []domain.Prospect{
		{ID: "p1", TeamID: "team-1", CompanyName: "Cold Co", CompanyDomain: "cold.io"},
	}}
	finder := &stubFinder{}
	matcher := &stubMatcher{matches: []domain.RelevanceMatch{
		{Name: "maria flores", RelevanceScore: 90, MatchType: domain.PathAlumni},
		{Name: "Nobody Known", RelevanceScore: 99},
	}}

	scorer := testScorer(prospects, contacts, finder, matcher)
	if _, err := scorer.ScoreTeam(context.Background(), "team-1"); err != nil {
		t.Fatalf("ScoreTeam error: %v", err)
	}

	if matcher.calls != 1 {
		t.Fatalf("matcher must be consulted once, got %d", matcher.calls)
	}
	got := prospects.updated[0]
	if got.PathCount != 1 {
		t.Fatalf("only known contacts become paths, got %d", got.PathCount)
	}
	// 0.9 * 0.8 = 0.72; round(0.72*70 + 5) = 55.
	if got.ConnectionScore != 55 {
		t.Fatalf("score = %d, want 55", got.ConnectionScore)
	}
	if len(got.TopPaths) != 1 || got.TopPaths[0].ConnectorName != "Maria Flores" {
		t.Fatalf("path must carry the stored contact name, got %+v", got.TopPaths)
	}
}

func TestScoreTeamMalformedMatcherOutputMeansZeroMatches(t *testing.T) {
	t.Parallel()

	contacts := newMemContacts(domain.Contact{ID: "c1", TeamID: "team-1", FullName: "Someone"})
	prospects := &memProspects{prospects: []domain.Prospect{
		{ID: "p1", TeamID: "team-1", CompanyDomain: "cold.io"},
	}}
	finder := &stubFinder{}
	matcher := &stubMatcher{err: faults.Wrap(faults.ErrMalformedResponse, "matcher", "parse", nil)}

	scorer := testScorer(prospects, contacts, finder, matcher)
	report, err := scorer.ScoreTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("malformed matcher output must not fail the run: %v", err)
	}
	if report.Failed != 0 || report.Scored != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if prospects.updated[0].ConnectionScore != 0 {
		t.Fatalf("score must be zero, got %d", prospects.updated[0].ConnectionScore)
	}
}

func TestScoreTeamRateLimitedFinderRetries(t *testing.T) {
	t.Parallel()

	prospects := &memProspects{prospects: []domain.Prospect{
		{ID: "p1", TeamID: "team-1", CompanyDomain: "acme.com"},
	}}
	finder := &stubFinder{
		errs: []error{faults.Wrap(faults.ErrRateLimited, "graph", "search", nil)},
		paths: map[string][]domain.ConnectionPath{
			"acme.com": {{ConnectorName: "Ana", Strength: 1}},
		},
	}

	scorer := testScorer(prospects, newMemContacts(), finder, nil)
	report, err := scorer.ScoreTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("ScoreTeam error: %v", err)
	}
	if finder.calls != 2 || report.Retried != 1 || report.Scored != 1 {
		t.Fatalf("expected one retry then success: calls=%d report=%+v", finder.calls, report)
	}
}

func TestScoreTeamBackoffHonorsRetryAfterHint(t *testing.T) {
	t.Parallel()

	prospects := &memProspects{prospects: []domain.Prospect{
		{ID: "p1", TeamID: "team-1", CompanyDomain: "acme.com"},
	}}
	finder := &stubFinder{
		errs: []error{faults.RateLimited("graph", "search", 123*time.Millisecond)},
		paths: map[string][]domain.ConnectionPath{
			"acme.com": {{ConnectorName: "Ana", Strength: 1}},
		},
	}

	var slept []time.Duration
	scorer := NewProspectScorer(ScorerDeps{
		Prospects: prospects,
		Finder:    finder,
		Config:    config.SyncConfig{MaxRetries: 2, BackoffBaseMS: 5000},
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	})

	if _, err := scorer.ScoreTeam(context.Background(), "team-1"); err != nil {
		t.Fatalf("ScoreTeam error: %v", err)
	}
	if len(slept) != 1 || slept[0] != 123*time.Millisecond {
		t.Fatalf("provider-stated delay must win over the local backoff, slept %v", slept)
	}
}

func TestScoreTeamStoreFailureContinuesToNextProspect(t *testing.T) {
	t.Parallel()

	prospects := &memProspects{
		prospects: []domain.Prospect{
			{ID: "p1", TeamID: "team-1", CompanyDomain: "a.com"},
			{ID: "p2", TeamID: "team-1", CompanyDomain: "b.com"},
		},
		updateErr: errors.New("write refused"),
	}
	finder := &stubFinder{}

	scorer := testScorer(prospects, newMemContacts(), finder, nil)
	report, err := scorer.ScoreTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("store failures are per-item: %v", err)
	}
	if report.Attempted != 2 || report.Failed != 2 || report.Scored != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
