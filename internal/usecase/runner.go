package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ProspectPulse/internal/config"
	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/faults"
	"ProspectPulse/internal/ports"
	"ProspectPulse/pkg/metrics"
)

// ContactSyncer is the sync half of a team run. Satisfied by *Syncer.
type ContactSyncer interface {
	SyncContacts(ctx context.Context, team config.TeamConfig, since time.Time) (domain.RunReport, error)
}

// TeamScorer is the scoring half of a team run. Satisfied by *ProspectScorer.
type TeamScorer interface {
	ScoreTeam(ctx context.Context, teamID string) (domain.RunReport, error)
}

// RunnerDeps wires the per-team run driver.
type RunnerDeps struct {
	Syncer   ContactSyncer
	Scorer   TeamScorer
	Lock     ports.RunLock
	Journal  ports.RunJournal
	Notifier ports.Notifier
	Metrics  *metrics.Manager
	Logger   *slog.Logger
	Teams    []config.TeamConfig
}

// Runner executes one complete run per team: contact sync followed by
// prospect scoring, under the team lease, with a published summary.
type Runner struct {
	syncer   ContactSyncer
	scorer   TeamScorer
	lock     ports.RunLock
	journal  ports.RunJournal
	notifier ports.Notifier
	metrics  *metrics.Manager
	logger   *slog.Logger
	teams    []config.TeamConfig
}

// NewRunner constructs the run driver.
func NewRunner(deps RunnerDeps) *Runner {
	return &Runner{
		syncer:   deps.Syncer,
		scorer:   deps.Scorer,
		lock:     deps.Lock,
		journal:  deps.Journal,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		teams:    deps.Teams,
	}
}

// RunAll processes every configured team in order. A team whose lease is held
// elsewhere is skipped, not failed; a fatal per-team error stops that team but
// not the others.
func (r *Runner) RunAll(ctx context.Context, trigger time.Time) error {
	if len(r.teams) == 0 {
		return faults.Wrap(faults.ErrConfiguration, "runner", "no teams configured", nil)
	}

	var firstErr error
	for _, team := range r.teams {
		if err := r.RunTeam(ctx, team, trigger); err != nil {
			if errors.Is(err, faults.ErrLockHeld) {
				r.info("run already active, skipping", "team", team.ID)
				continue
			}
			if ctx.Err() != nil {
				return err
			}
			r.error("team run failed", "team", team.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RunTeam performs the sync + scoring cycle for one team under its lease. The
// sighting window starts at the previous successful run's watermark, so an
// ad-hoc run between scheduled ones never re-fetches sightings the previous
// run already merged.
func (r *Runner) RunTeam(ctx context.Context, team config.TeamConfig, trigger time.Time) error {
	if r.lock != nil {
		release, err := r.lock.Acquire(team.ID)
		if err != nil {
			return err
		}
		defer release()
	}

	started := time.Now()
	since := r.sightingWindow(ctx, team.ID, trigger)

	syncReport, syncErr := r.syncer.SyncContacts(ctx, team, since)
	r.info("contact sync finished", "summary", syncReport.Summary())
	r.publish(ctx, "sync "+syncReport.Summary())
	if syncErr != nil {
		return fmt.Errorf("sync team %s: %w", team.ID, syncErr)
	}

	scoreReport, scoreErr := r.scorer.ScoreTeam(ctx, team.ID)
	r.info("prospect scoring finished", "summary", scoreReport.Summary())
	r.publish(ctx, "scoring "+scoreReport.Summary())
	if scoreErr != nil {
		return fmt.Errorf("score team %s: %w", team.ID, scoreErr)
	}

	if r.journal != nil {
		if err := r.journal.RecordRun(ctx, team.ID, trigger); err != nil {
			r.error("record run watermark failed", "team", team.ID, "error", err)
		}
	}

	r.metrics.ObserveRun(time.Since(started))
	return nil
}

// sightingWindow returns the start of the fetch window: the last successful
// run when known, otherwise one day before the trigger.
func (r *Runner) sightingWindow(ctx context.Context, teamID string, trigger time.Time) time.Time {
	fallback := trigger.Add(-24 * time.Hour)
	if r.journal == nil {
		return fallback
	}

	last, err := r.journal.LastRun(ctx, teamID)
	if err != nil {
		r.error("read run watermark failed", "team", teamID, "error", err)
		return fallback
	}
	if last.IsZero() {
		return fallback
	}
	return last
}

func (r *Runner) publish(ctx context.Context, summary string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.PublishSummary(ctx, summary); err != nil {
		r.error("publish summary failed", "error", err)
	}
}

func (r *Runner) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) error(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Error(msg, args...)
	}
}
