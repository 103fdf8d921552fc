package identity

import (
	"context"
	"testing"
	"time"

	"ProspectPulse/internal/domain"
)

// fakeLookup serves canned contacts keyed by normalized identity values.
type fakeLookup struct {
	byEmail       map[string]domain.Contact
	byProfileURL  map[string]domain.Contact
	byNameCompany []domain.Contact
}

func (f *fakeLookup) FindByEmail(_ context.Context, _ string, key string) (*domain.Contact, error) {
	if c, ok := f.byEmail[key]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeLookup) FindByProfileURL(_ context.Context, _ string, key string) (*domain.Contact, error) {
	if c, ok := f.byProfileURL[key]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeLookup) FindByNameCompany(_ context.Context, _ string, name, company string) ([]domain.Contact, error) {
	var out []domain.Contact
	for _, c := range f.byNameCompany {
		if NormalizeName(c.FullName) == NormalizeName(name) && NormalizeName(c.CompanyName) == NormalizeName(company) {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestResolveEmailBeatsNameCompany(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{
		byEmail: map[string]domain.Contact{
			"jane@acme.com": {ID: "email-hit"},
		},
		byNameCompany: []domain.Contact{
			{ID: "name-hit", FullName: "Jane Doe", CompanyName: "Acme"},
		},
	}
	resolver := NewResolver(lookup)

	raw := domain.RawContact{
		Email:       "Jane@Acme.com ",
		FullName:    "jane doe",
		CompanyName: "ACME",
	}

	candidates, err := resolver.Resolve(context.Background(), "team-1", raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected both tiers to report, got %d candidates", len(candidates))
	}
	if candidates[0].ExistingID != "email-hit" || candidates[0].MatchType != domain.MatchEmail {
		t.Fatalf("email match must rank first, got %+v", candidates[0])
	}
	if candidates[0].Confidence != 1.0 {
		t.Fatalf("email confidence must be 1.0, got %v", candidates[0].Confidence)
	}
	if candidates[1].Confidence != 0.7 {
		t.Fatalf("name+company confidence must be 0.7, got %v", candidates[1].Confidence)
	}
}

func TestResolveProfileURLTier(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{
		byProfileURL: map[string]domain.Contact{
			"linkedin.com/in/janedoe": {ID: "url-hit"},
		},
	}
	resolver := NewResolver(lookup)

	raw := domain.RawContact{ProfileURL: "https://www.linkedin.com/in/janedoe/"}
	candidates, err := resolver.Resolve(context.Background(), "team-1", raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	if candidates[0].MatchType != domain.MatchProfileURL || candidates[0].Confidence != 0.95 {
		t.Fatalf("unexpected candidate: %+v", candidates[0])
	}
}

func TestResolveNoKeysMeansNewContact(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(&fakeLookup{})
	raw := domain.RawContact{FullName: "Jane Doe"} // no email, url, or company

	candidates, err := resolver.Resolve(context.Background(), "team-1", raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected zero candidates, got %d", len(candidates))
	}
}

func TestResolveAmbiguousTierKeepsStoreOrder(t *testing.T) {
	t.Parallel()

	older := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	newer := older.AddDate(0, 3, 0)

	// The lookup contract orders name+company hits by (created_at, id); the
	// resolver must preserve that order so the oldest record wins.
	lookup := &fakeLookup{
		byNameCompany: []domain.Contact{
			{ID: "a-older", FullName: "Jane Doe", CompanyName: "Acme", CreatedAt: older},
			{ID: "b-newer", FullName: "Jane Doe", CompanyName: "Acme", CreatedAt: newer},
		},
	}
	resolver := NewResolver(lookup)

	raw := domain.RawContact{FullName: "Jane Doe", CompanyName: "Acme"}
	candidates, err := resolver.Resolve(context.Background(), "team-1", raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected two candidates, got %d", len(candidates))
	}
	if candidates[0].ExistingID != "a-older" {
		t.Fatalf("oldest record must rank first, got %s", candidates[0].ExistingID)
	}
}

func TestResolveSameContactAcrossTiersReportedOnce(t *testing.T) {
	t.Parallel()

	contact := domain.Contact{ID: "same", FullName: "Jane Doe", CompanyName: "Acme"}
	lookup := &fakeLookup{
		byEmail:       map[string]domain.Contact{"jane@acme.com": contact},
		byNameCompany: []domain.Contact{contact},
	}
	resolver := NewResolver(lookup)

	raw := domain.RawContact{Email: "jane@acme.com", FullName: "Jane Doe", CompanyName: "Acme"}
	candidates, err := resolver.Resolve(context.Background(), "team-1", raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("contact matched at two tiers must appear once, got %d", len(candidates))
	}
	if candidates[0].MatchType != domain.MatchEmail {
		t.Fatalf("the higher tier must win, got %q", candidates[0].MatchType)
	}
}
