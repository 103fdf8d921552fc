package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ProspectPulse/internal/ports"
)

// RunJournal stores the per-team last-successful-run watermark in Postgres.
type RunJournal struct {
	db *sql.DB
}

var _ ports.RunJournal = (*RunJournal)(nil)

// NewRunJournal wires a sql.DB implementation.
func NewRunJournal(db *sql.DB) *RunJournal {
	return &RunJournal{db: db}
}

// LastRun reads the team watermark; the zero time means no run has completed.
func (j *RunJournal) LastRun(ctx context.Context, teamID string) (time.Time, error) {
	query, args, err := psql.Select("last_run_at").
		From("sync_watermarks").
		Where(sq.Eq{"team_id": teamID}).
		ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("build watermark lookup: %w", err)
	}

	var last time.Time
	err = j.db.QueryRowContext(ctx, query, args...).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read watermark: %w", err)
	}
	return last, nil
}

// RecordRun upserts the team watermark after a successful run.
func (j *RunJournal) RecordRun(ctx context.Context, teamID string, ranAt time.Time) error {
	query, args, err := psql.Insert("sync_watermarks").
		Columns("team_id", "last_run_at").
		Values(teamID, ranAt).
		Suffix("ON CONFLICT (team_id) DO UPDATE SET last_run_at = EXCLUDED.last_run_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build watermark upsert: %w", err)
	}

	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write watermark: %w", err)
	}
	return nil
}
