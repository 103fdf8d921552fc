// Package connection implements the path-finding and scoring half of the
// engine: turning network-graph results into ranked introduction paths and a
// single 0-100 connection score per prospect.
package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/ports"
)

// Finder retrieves candidate introduction paths for a target company from the
// network-graph provider and ranks them.
type Finder struct {
	provider ports.GraphProvider
	logger   *slog.Logger
}

// NewFinder wires the graph provider.
func NewFinder(provider ports.GraphProvider, log *slog.Logger) *Finder {
	return &Finder{provider: provider, logger: log}
}

// FindPaths queries the graph for people at companyDomain and flattens their
// owned connections into paths, strongest first. The provider may return
// results in arbitrary order; downstream consumers rely on paths[0] being the
// strongest. An empty result is valid: no known path, not an error.
func (f *Finder) FindPaths(ctx context.Context, companyDomain string) ([]domain.ConnectionPath, error) {
	if f.provider == nil {
		return nil, fmt.Errorf("path finder: graph provider is not configured")
	}

	profiles, err := f.provider.Search(ctx, companyDomain)
	if err != nil {
		return nil, fmt.Errorf("graph search %s: %w", companyDomain, err)
	}

	var paths []domain.ConnectionPath
	for _, profile := range profiles {
		for _, conn := range profile.Connections {
			paths = append(paths, domain.ConnectionPath{
				ConnectorID:   conn.ConnectorID,
				ConnectorName: conn.ConnectorName,
				TargetName:    profile.Name,
				TargetTitle:   profile.Title,
				Kind:          pathKind(conn.Kind),
				Strength:      strengthToUnit(conn.Strength),
				SharedContext: conn.SharedContext,
			})
		}
	}

	SortPaths(paths)

	f.debug("paths found", "company_domain", companyDomain, "profiles", len(profiles), "paths", len(paths))
	return paths, nil
}

// SortPaths orders paths by descending strength with a deterministic
// tie-break on connector then target name, so equal-strength paths rank the
// same way on every run.
func SortPaths(paths []domain.ConnectionPath) {
	sort.SliceStable(paths, func(i, j int) bool {
		if paths[i].Strength != paths[j].Strength {
			return paths[i].Strength > paths[j].Strength
		}
		if paths[i].ConnectorName != paths[j].ConnectorName {
			return paths[i].ConnectorName < paths[j].ConnectorName
		}
		return paths[i].TargetName < paths[j].TargetName
	})
}

// strengthToUnit converts the provider's 0-100 strength to the canonical
// [0,1] path scale. This is the only place that conversion happens.
func strengthToUnit(strength int) float64 {
	if strength < 0 {
		return 0
	}
	if strength > 100 {
		return 1
	}
	return float64(strength) / 100
}

// pathKind carries the provider's classification through verbatim. Scoring
// never depends on the kind, so an unfamiliar value is information to keep,
// not something to coerce into a known one.
func pathKind(kind string) domain.PathKind {
	return domain.PathKind(strings.TrimSpace(kind))
}

func (f *Finder) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
