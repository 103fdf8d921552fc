package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/ports"
)

// ProspectRepository implements ports.ProspectRepository over Postgres. The
// top-N paths ride in a jsonb snapshot column for display; the engine never
// reads them back for scoring.
type ProspectRepository struct {
	db *sql.DB
}

var _ ports.ProspectRepository = (*ProspectRepository)(nil)

// NewProspectRepository wires a sql.DB implementation.
func NewProspectRepository(db *sql.DB) *ProspectRepository {
	return &ProspectRepository{db: db}
}

// ListByTeam returns every prospect under evaluation for the team, ordered by
// company domain for stable run order.
func (r *ProspectRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.Prospect, error) {
	query, args, err := psql.Select("id", "team_id", "company_name", "company_domain",
		"connection_score", "best_connector_name", "path_count", "top_paths", "scored_at").
		From("prospects").
		Where(sq.Eq{"team_id": teamID}).
		OrderBy("company_domain", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build prospect list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query prospects: %w", err)
	}
	defer rows.Close()

	var prospects []domain.Prospect
	for rows.Next() {
		var (
			prospect domain.Prospect
			topPaths []byte
			scoredAt sql.NullTime
		)
		if err := rows.Scan(&prospect.ID, &prospect.TeamID, &prospect.CompanyName,
			&prospect.CompanyDomain, &prospect.ConnectionScore,
			&prospect.BestConnectorName, &prospect.PathCount, &topPaths, &scoredAt); err != nil {
			return nil, fmt.Errorf("scan prospect: %w", err)
		}
		if len(topPaths) > 0 {
			if err := json.Unmarshal(topPaths, &prospect.TopPaths); err != nil {
				return nil, fmt.Errorf("decode top paths for %s: %w", prospect.ID, err)
			}
		}
		if scoredAt.Valid {
			prospect.ScoredAt = scoredAt.Time
		}
		prospects = append(prospects, prospect)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return prospects, nil
}

// UpdateScore persists the recomputed connection snapshot. One atomic write
// per prospect; scoring runs for the same team are serialized by the run
// lease, so no two writers race on a record.
func (r *ProspectRepository) UpdateScore(ctx context.Context, prospect domain.Prospect) error {
	topPaths, err := json.Marshal(prospect.TopPaths)
	if err != nil {
		return fmt.Errorf("encode top paths: %w", err)
	}

	query, args, err := psql.Update("prospects").
		Set("connection_score", prospect.ConnectionScore).
		Set("best_connector_name", prospect.BestConnectorName).
		Set("path_count", prospect.PathCount).
		Set("top_paths", topPaths).
		Set("scored_at", nullableTime(prospect.ScoredAt)).
		Where(sq.Eq{"team_id": prospect.TeamID, "id": prospect.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build score update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update prospect score: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update prospect %s: no such row", prospect.ID)
	}
	return nil
}
