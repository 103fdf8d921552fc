package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ProspectPulse/internal/config"
	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/faults"
	"ProspectPulse/internal/identity"
	"ProspectPulse/internal/ports"
	"ProspectPulse/internal/source"
	"ProspectPulse/pkg/metrics"
)

// SyncDeps wires all driven adapters into the contact sync workflow.
type SyncDeps struct {
	Registry *source.Registry
	Contacts ports.ContactRepository
	Resolver *identity.Resolver
	Enricher ports.EnrichmentProvider
	Metrics  *metrics.Manager
	Logger   *slog.Logger
	Config   config.SyncConfig

	// Overridable for tests.
	Now   func() time.Time
	NewID func() string
	Sleep func(ctx context.Context, d time.Duration) error
}

// Syncer drives batches of raw contacts through resolve -> merge -> persist,
// sequentially, with rate-limit pacing and per-item failure accounting.
type Syncer struct {
	registry *source.Registry
	contacts ports.ContactRepository
	resolver *identity.Resolver
	enricher ports.EnrichmentProvider
	metrics  *metrics.Manager
	logger   *slog.Logger
	cfg      config.SyncConfig

	now   func() time.Time
	newID func() string
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSyncer constructs the contact sync orchestrator.
func NewSyncer(deps SyncDeps) *Syncer {
	s := &Syncer{
		registry: deps.Registry,
		contacts: deps.Contacts,
		resolver: deps.Resolver,
		enricher: deps.Enricher,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		cfg:      deps.Config,
		now:      deps.Now,
		newID:    deps.NewID,
		sleep:    deps.Sleep,
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.sleep == nil {
		s.sleep = sleepCtx
	}
	return s
}

// SyncContacts processes every configured source of the team, in source
// order, one raw contact at a time. Per-item failures land in the report; the
// batch only aborts on fatal conditions (quota exhaustion, missing
// configuration) or context cancellation.
//
// The caller holds the team run lease: within one run every physical sighting
// is merged exactly once, which is what keeps the cumulative interaction
// count honest.
func (s *Syncer) SyncContacts(ctx context.Context, team config.TeamConfig, since time.Time) (domain.RunReport, error) {
	report := domain.RunReport{TeamID: team.ID}

	if s.registry == nil || s.contacts == nil || s.resolver == nil {
		return report, faults.Wrap(faults.ErrConfiguration, "sync", "registry, repository and resolver required", nil)
	}

	retry := &retrier{cfg: s.cfg, metrics: s.metrics, logger: s.logger, sleep: s.sleep}

	for _, srcCfg := range team.Sources {
		strategy, err := s.registry.Resolve(srcCfg.Type)
		if err != nil {
			return report, faults.Wrap(faults.ErrConfiguration, "sync", fmt.Sprintf("team %s", team.ID), err)
		}

		req := source.Request{
			TeamID:  team.ID,
			OwnerID: team.OwnerID,
			Since:   since,
			Options: srcCfg.Options,
		}

		var raws []domain.RawContact
		err = retry.run(ctx, &report, func() error {
			var fetchErr error
			raws, fetchErr = strategy.Fetch(ctx, req)
			return fetchErr
		})
		if err != nil {
			if faults.IsFatal(err) || ctx.Err() != nil {
				return report, err
			}
			s.warn("source fetch failed", "team", team.ID, "source", srcCfg.Type, "error", err)
			s.metrics.ItemFailure("source_fetch")
			report.RecordFailure()
			continue
		}

		s.debug("source batch fetched", "team", team.ID, "source", srcCfg.Type, "count", len(raws))

		for i, raw := range raws {
			if i > 0 || report.Attempted > 0 {
				if err := s.sleep(ctx, s.cfg.ItemDelay()); err != nil {
					return report, err
				}
			}

			if raw.FullName == "" {
				s.debug("sighting without a name skipped", "team", team.ID, "source", srcCfg.Type)
				report.Skipped++
				continue
			}

			report.Attempted++
			s.metrics.ContactProcessed()

			err := retry.run(ctx, &report, func() error {
				return s.processOne(ctx, team.ID, raw, &report)
			})
			if err != nil {
				if faults.IsFatal(err) || ctx.Err() != nil {
					return report, err
				}
				s.warn("contact failed", "team", team.ID, "source", srcCfg.Type, "name", raw.FullName, "error", err)
				s.metrics.ItemFailure(classify(err))
				report.RecordFailure()
			}
		}
	}

	return report, nil
}

// processOne is the atomic read-modify-write for a single sighting: resolve,
// merge (or create), persist, then best-effort enrichment of missing fields.
func (s *Syncer) processOne(ctx context.Context, teamID string, raw domain.RawContact, report *domain.RunReport) error {
	candidates, err := s.resolver.Resolve(ctx, teamID, raw)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	now := s.now()
	var contact domain.Contact

	if len(candidates) == 0 {
		contact = identity.NewContact(s.newID(), teamID, raw, now)
		if err := s.contacts.Insert(ctx, contact); err != nil {
			return faults.Wrap(faults.ErrStoreWrite, "sync", "insert contact", err)
		}
		report.Created++
		s.metrics.ContactCreated()
	} else {
		existing, err := s.contacts.GetByID(ctx, teamID, candidates[0].ExistingID)
		if err != nil {
			return fmt.Errorf("load merge target: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("merge target %s vanished", candidates[0].ExistingID)
		}

		contact = identity.Merge(*existing, raw)
		contact.UpdatedAt = now
		if err := s.contacts.Update(ctx, contact); err != nil {
			return faults.Wrap(faults.ErrStoreWrite, "sync", "update contact", err)
		}
		report.Merged++
		s.metrics.ContactMerged()
	}

	return s.enrichMissing(ctx, contact)
}

// enrichMissing fills profile gaps from the enrichment provider. A provider
// miss is an attempted-but-empty result, not a failure; quota exhaustion
// bubbles up and kills the run.
func (s *Syncer) enrichMissing(ctx context.Context, contact domain.Contact) error {
	if s.enricher == nil || !s.cfg.EnrichMissing {
		return nil
	}
	if contact.Title != "" && contact.CompanyDomain != "" && contact.ProfileURL != "" {
		return nil
	}

	record, err := s.enricher.Enrich(ctx, ports.EnrichmentQuery{
		Email:       contact.Email,
		ProfileURL:  contact.ProfileURL,
		FullName:    contact.FullName,
		CompanyName: contact.CompanyName,
	})
	if err != nil {
		if errors.Is(err, faults.ErrNotFound) {
			s.debug("no enrichment data", "contact", contact.ID)
			return nil
		}
		return fmt.Errorf("enrich contact %s: %w", contact.ID, err)
	}

	enriched := identity.Merge(contact, identity.EnrichmentSighting(*record))
	if enriched == contact {
		return nil
	}

	enriched.UpdatedAt = s.now()
	if err := s.contacts.Update(ctx, enriched); err != nil {
		return faults.Wrap(faults.ErrStoreWrite, "sync", "apply enrichment", err)
	}
	return nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, faults.ErrStoreWrite):
		return "store_write"
	case errors.Is(err, faults.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, faults.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, faults.ErrNotFound):
		return "not_found"
	default:
		return "other"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Syncer) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Syncer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
