package identity

import (
	"context"
	"fmt"
	"sort"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/ports"
)

// Match-tier confidences. A lower tier must never override a higher one when
// both exist.
const (
	confidenceEmail       = 1.0
	confidenceProfileURL  = 0.95
	confidenceNameCompany = 0.7
)

// Resolver finds merge candidates for an incoming raw contact within one
// team's existing contact set.
type Resolver struct {
	lookup ports.ContactLookup
}

// NewResolver wires the contact lookup side of the store.
func NewResolver(lookup ports.ContactLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns merge candidates ordered by descending confidence. All
// three tiers are queried; duplicates of a contact already matched at a higher
// tier are dropped. An empty result means the raw contact is a new person.
//
// Ambiguous duplicates inside one tier (a data-integrity anomaly) resolve
// deterministically: the store orders name+company hits by (created_at, id)
// and the oldest record wins.
func (r *Resolver) Resolve(ctx context.Context, teamID string, raw domain.RawContact) ([]domain.MergeCandidate, error) {
	if r.lookup == nil {
		return nil, fmt.Errorf("resolver: contact lookup is not configured")
	}

	var candidates []domain.MergeCandidate
	seen := map[string]struct{}{}

	add := func(id string, matchType domain.MatchType, confidence float64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		candidates = append(candidates, domain.MergeCandidate{
			ExistingID: id,
			MatchType:  matchType,
			Confidence: confidence,
		})
	}

	if key := NormalizeEmail(raw.Email); key != "" {
		existing, err := r.lookup.FindByEmail(ctx, teamID, key)
		if err != nil {
			return nil, fmt.Errorf("resolve by email: %w", err)
		}
		if existing != nil {
			add(existing.ID, domain.MatchEmail, confidenceEmail)
		}
	}

	if key := NormalizeProfileURL(raw.ProfileURL); key != "" {
		existing, err := r.lookup.FindByProfileURL(ctx, teamID, key)
		if err != nil {
			return nil, fmt.Errorf("resolve by profile url: %w", err)
		}
		if existing != nil {
			add(existing.ID, domain.MatchProfileURL, confidenceProfileURL)
		}
	}

	if raw.FullName != "" && raw.CompanyName != "" {
		matches, err := r.lookup.FindByNameCompany(ctx, teamID, raw.FullName, raw.CompanyName)
		if err != nil {
			return nil, fmt.Errorf("resolve by name+company: %w", err)
		}
		for _, existing := range matches {
			add(existing.ID, domain.MatchNameCompany, confidenceNameCompany)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	return candidates, nil
}
