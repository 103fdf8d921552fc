package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ProspectPulse/internal/config"
	"ProspectPulse/internal/connection"
	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/faults"
	"ProspectPulse/internal/ports"
	"ProspectPulse/pkg/metrics"
)

// PathFinder retrieves strength-sorted introduction paths for a company
// domain. Satisfied by connection.Finder.
type PathFinder interface {
	FindPaths(ctx context.Context, companyDomain string) ([]domain.ConnectionPath, error)
}

// ScorerDeps wires the prospect scoring workflow.
type ScorerDeps struct {
	Prospects ports.ProspectRepository
	Contacts  ports.ContactRepository
	Finder    PathFinder
	Matcher   ports.RelevanceMatcher
	Metrics   *metrics.Manager
	Logger    *slog.Logger
	Config    config.SyncConfig

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// ProspectScorer recomputes connection scores for every prospect of a team:
// graph paths first, AI-suggested paths as fallback, then the scoring formula
// and a persisted top-N snapshot.
type ProspectScorer struct {
	prospects ports.ProspectRepository
	contacts  ports.ContactRepository
	finder    PathFinder
	matcher   ports.RelevanceMatcher
	metrics   *metrics.Manager
	logger    *slog.Logger
	cfg       config.SyncConfig

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewProspectScorer constructs the scoring orchestrator.
func NewProspectScorer(deps ScorerDeps) *ProspectScorer {
	p := &ProspectScorer{
		prospects: deps.Prospects,
		contacts:  deps.Contacts,
		finder:    deps.Finder,
		matcher:   deps.Matcher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		cfg:       deps.Config,
		now:       deps.Now,
		sleep:     deps.Sleep,
	}
	if p.now == nil {
		p.now = func() time.Time { return time.Now().UTC() }
	}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}
	return p
}

// ScoreTeam walks the team's prospects sequentially, pacing external calls
// and accumulating per-item failures. The caller holds the team run lease, so
// no prospect is ever mutated by two scoring runs at once.
func (p *ProspectScorer) ScoreTeam(ctx context.Context, teamID string) (domain.RunReport, error) {
	report := domain.RunReport{TeamID: teamID}

	if p.prospects == nil || p.finder == nil {
		return report, faults.Wrap(faults.ErrConfiguration, "scoring", "prospect repository and path finder required", nil)
	}

	prospects, err := p.prospects.ListByTeam(ctx, teamID)
	if err != nil {
		return report, fmt.Errorf("list prospects: %w", err)
	}

	retrier := &retrier{cfg: p.cfg, metrics: p.metrics, logger: p.logger, sleep: p.sleep}

	for i, prospect := range prospects {
		if i > 0 {
			if err := p.sleep(ctx, p.cfg.ItemDelay()); err != nil {
				return report, err
			}
		}

		report.Attempted++

		err := retrier.run(ctx, &report, func() error {
			return p.scoreOne(ctx, prospect)
		})
		if err != nil {
			if faults.IsFatal(err) || ctx.Err() != nil {
				return report, err
			}
			p.warn("prospect scoring failed", "team", teamID, "domain", prospect.CompanyDomain, "error", err)
			p.metrics.ItemFailure(classify(err))
			report.RecordFailure()
			continue
		}

		report.Scored++
		p.metrics.ProspectScored()
	}

	return report, nil
}

func (p *ProspectScorer) scoreOne(ctx context.Context, prospect domain.Prospect) error {
	paths, err := p.finder.FindPaths(ctx, prospect.CompanyDomain)
	if err != nil {
		return err
	}

	if len(paths) == 0 && p.matcher != nil {
		paths, err = p.suggestPaths(ctx, prospect)
		if err != nil {
			return err
		}
	}

	result := connection.Score(paths)

	prospect.ConnectionScore = result.Score
	prospect.PathCount = len(paths)
	prospect.BestConnectorName = ""
	if result.BestPath != nil {
		prospect.BestConnectorName = result.BestPath.ConnectorName
	}
	prospect.TopPaths = topN(paths, p.cfg.TopPathCount)
	prospect.ScoredAt = p.now()

	if err := p.prospects.UpdateScore(ctx, prospect); err != nil {
		return faults.Wrap(faults.ErrStoreWrite, "scoring", "update prospect", err)
	}
	return nil
}

// suggestPaths asks the AI matcher when the graph knows no route in. Matcher
// output is untrusted: a malformed response counts as zero matches for this
// prospect, never as a run failure.
func (p *ProspectScorer) suggestPaths(ctx context.Context, prospect domain.Prospect) ([]domain.ConnectionPath, error) {
	if p.contacts == nil {
		return nil, nil
	}

	candidates, err := p.contacts.ListByTeam(ctx, prospect.TeamID, p.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	summaries := make([]ports.CandidateSummary, 0, len(candidates))
	for _, c := range candidates {
		summaries = append(summaries, ports.CandidateSummary{
			Name:               c.FullName,
			Title:              c.Title,
			CompanyName:        c.CompanyName,
			ConnectionStrength: c.ConnectionStrength,
		})
	}

	matches, err := p.matcher.Match(ctx, prospect.CompanyDomain, summaries)
	if err != nil {
		if errors.Is(err, faults.ErrMalformedResponse) {
			p.warn("matcher output unusable, treating as zero matches", "domain", prospect.CompanyDomain, "error", err)
			return nil, nil
		}
		return nil, err
	}

	return connection.AdaptMatches(matches, candidates), nil
}

// retrier re-runs an operation after a growing backoff while it keeps
// signalling rate limiting, up to the configured bound. The bound must exist:
// an unbounded loop against a throttling provider is a defect, not
// persistence. The item index never advances while a retry is pending.
type retrier struct {
	cfg     config.SyncConfig
	metrics *metrics.Manager
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func (r *retrier) run(ctx context.Context, report *domain.RunReport, op func() error) error {
	delay := r.cfg.BackoffBase()

	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil || !faults.IsRetryable(err) {
			return err
		}
		if attempt >= r.cfg.MaxRetries {
			return fmt.Errorf("retries exhausted after %d attempts: %w", attempt+1, err)
		}

		report.Retried++
		r.metrics.RateLimitRetry()

		// A provider-stated Retry-After overrides our own backoff: waiting
		// less than asked just burns the next attempt.
		wait := delay
		if hint, ok := faults.RetryAfter(err); ok {
			wait = hint
		}
		if r.logger != nil {
			r.logger.Debug("rate limited, backing off", "delay", wait, "attempt", attempt+1)
		}

		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
		delay *= 2
		if max := r.cfg.BackoffMax(); max > 0 && delay > max {
			delay = max
		}
	}
}

func topN(paths []domain.ConnectionPath, n int) []domain.ConnectionPath {
	if n <= 0 || len(paths) <= n {
		return paths
	}
	return paths[:n]
}

func (p *ProspectScorer) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
