// Package ingest provides the contact source strategies: professional-network
// API, CSV export, and mailbox sync.
package ingest

import (
	"context"
	"fmt"
	"time"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/infrastructure/graph"
	"ProspectPulse/internal/source"
)

// ConnectionLister is the slice of the graph client the network source needs.
type ConnectionLister interface {
	Connections(ctx context.Context, ownerID string, since time.Time) ([]graph.Connection, error)
}

// NetworkSource pulls the owner's first-degree professional network and
// converts each connection into a raw sighting carrying the graph-observed
// connection strength.
type NetworkSource struct {
	lister ConnectionLister
}

var _ source.Source = (*NetworkSource)(nil)

// NewNetworkSource wires the graph connection lister.
func NewNetworkSource(lister ConnectionLister) *NetworkSource {
	return &NetworkSource{lister: lister}
}

// Name identifies the strategy inside the registry.
func (n *NetworkSource) Name() string {
	return string(domain.SourceNetworkGraph)
}

// Fetch lists connections updated since the previous run.
func (n *NetworkSource) Fetch(ctx context.Context, req source.Request) ([]domain.RawContact, error) {
	if n.lister == nil {
		return nil, fmt.Errorf("network source: graph client is not configured")
	}
	if req.OwnerID == "" {
		return nil, fmt.Errorf("network source: owner id required for team %s", req.TeamID)
	}

	connections, err := n.lister.Connections(ctx, req.OwnerID, req.Since)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	now := time.Now().UTC()
	raws := make([]domain.RawContact, 0, len(connections))
	for _, conn := range connections {
		raws = append(raws, domain.RawContact{
			Email:              conn.Email,
			ProfileURL:         conn.ProfileURL,
			FullName:           conn.Name,
			Title:              conn.Title,
			CompanyName:        conn.CompanyName,
			CompanyDomain:      conn.CompanyDomain,
			Source:             domain.SourceNetworkGraph,
			SourceID:           conn.ID,
			ConnectionStrength: conn.Strength,
			LastSyncAt:         now,
		})
	}

	return raws, nil
}
