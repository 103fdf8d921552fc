package connection

import (
	"math"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/identity"
)

// Scoring formula constants. Average strength rewards the quality of the
// available introductions; the capped per-path bonus rewards having multiple
// independent routes without letting volume dominate quality.
const (
	strengthWeight = 70
	perPathBonus   = 5
	maxPathBonus   = 30
	maxScore       = 100
)

// Result is the outcome of scoring one prospect's paths.
type Result struct {
	Score    int
	BestPath *domain.ConnectionPath
}

// Score converts strength-sorted paths into a 0-100 connection score with a
// deterministic tie-break: paths[0] is the best path because SortPaths already
// ranked it. Empty input scores zero with no best path.
func Score(paths []domain.ConnectionPath) Result {
	if len(paths) == 0 {
		return Result{}
	}

	var total float64
	for _, p := range paths {
		total += p.Strength
	}
	avg := total / float64(len(paths))

	bonus := float64(len(paths) * perPathBonus)
	if bonus > maxPathBonus {
		bonus = maxPathBonus
	}

	score := int(math.Round(avg*strengthWeight + bonus))
	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}

	best := paths[0]
	return Result{Score: score, BestPath: &best}
}

// AdaptMatches turns AI relevance matches into synthetic single-connector
// paths. The strength combines the model-proposed relevance with the
// graph-observed tie strength of the matched contact, not either alone:
//
//	strength = relevance/100 * contactStrength/100
//
// Matches naming a person the team does not actually own are dropped.
func AdaptMatches(matches []domain.RelevanceMatch, contacts []domain.Contact) []domain.ConnectionPath {
	byName := make(map[string]domain.Contact, len(contacts))
	for _, c := range contacts {
		byName[identity.NormalizeName(c.FullName)] = c
	}

	var paths []domain.ConnectionPath
	for _, m := range matches {
		contact, ok := byName[identity.NormalizeName(m.Name)]
		if !ok {
			continue
		}
		relevance := clampRelevance(m.RelevanceScore)
		paths = append(paths, domain.ConnectionPath{
			ConnectorID:   contact.ID,
			ConnectorName: contact.FullName,
			Kind:          domain.PathAISuggested,
			Strength:      float64(relevance) / 100 * float64(contact.ConnectionStrength) / 100,
			SharedContext: m.Reasoning,
		})
	}

	SortPaths(paths)
	return paths
}

func clampRelevance(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
