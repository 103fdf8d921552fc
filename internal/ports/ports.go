package ports

import (
	"context"
	"time"

	"ProspectPulse/internal/domain"
)

// ContactLookup is the read side the identity resolver needs: point lookups by
// normalized identity keys. Implementations must normalize stored values the
// same way the resolver normalizes incoming ones.
type ContactLookup interface {
	FindByEmail(ctx context.Context, teamID, normalizedEmail string) (*domain.Contact, error)
	FindByProfileURL(ctx context.Context, teamID, normalizedURL string) (*domain.Contact, error)
	// FindByNameCompany matches case-insensitively and returns rows ordered
	// by (created_at, id) ascending so ambiguous duplicates resolve
	// deterministically.
	FindByNameCompany(ctx context.Context, teamID, fullName, companyName string) ([]domain.Contact, error)
}

// ContactRepository persists contacts. The core never deletes.
type ContactRepository interface {
	ContactLookup
	GetByID(ctx context.Context, teamID, id string) (*domain.Contact, error)
	ListByTeam(ctx context.Context, teamID string, limit int) ([]domain.Contact, error)
	Insert(ctx context.Context, contact domain.Contact) error
	Update(ctx context.Context, contact domain.Contact) error
}

// ProspectRepository persists prospect companies and their scoring snapshots.
type ProspectRepository interface {
	ListByTeam(ctx context.Context, teamID string) ([]domain.Prospect, error)
	UpdateScore(ctx context.Context, prospect domain.Prospect) error
}

// GraphConnection is one edge returned by the network-graph provider.
type GraphConnection struct {
	ConnectorID   string
	ConnectorName string
	// Strength is on the provider's 0-100 scale; callers convert to [0,1]
	// at this boundary and nowhere else.
	Strength      int
	Kind          string
	SharedContext string
}

// GraphProfile is a person the network-graph provider knows about, together
// with the owned connections reaching them.
type GraphProfile struct {
	Name          string
	Title         string
	CompanyDomain string
	Connections   []GraphConnection
}

// GraphProvider queries the external professional-network graph. Search may
// paginate internally; a 429 from the provider surfaces as
// faults.ErrRateLimited.
type GraphProvider interface {
	Search(ctx context.Context, companyDomain string) ([]GraphProfile, error)
}

// EnrichmentQuery identifies a person for the enrichment provider; at least
// one field must be set.
type EnrichmentQuery struct {
	Email       string
	ProfileURL  string
	FullName    string
	CompanyName string
}

// EnrichmentProvider looks up third-party person data. No data surfaces as
// faults.ErrNotFound; an exhausted quota as faults.ErrQuotaExhausted.
type EnrichmentProvider interface {
	Enrich(ctx context.Context, query EnrichmentQuery) (*domain.PersonRecord, error)
}

// CandidateSummary is the bounded work-history digest handed to the AI
// relevance matcher for one owned contact.
type CandidateSummary struct {
	Name               string
	Title              string
	CompanyName        string
	ConnectionStrength int
}

// RelevanceMatcher asks an AI model which owned contacts are relevant to a
// target company. Output is untrusted; implementations validate strictly and
// surface anything off-schema as faults.ErrMalformedResponse.
type RelevanceMatcher interface {
	Match(ctx context.Context, companyDomain string, candidates []CandidateSummary) ([]domain.RelevanceMatch, error)
}

// RunLock serializes sync runs per team so interaction counts are never
// double-processed.
type RunLock interface {
	// Acquire returns a release func, or faults.ErrLockHeld when another
	// run owns the team lease.
	Acquire(teamID string) (func(), error)
}

// RunJournal persists the per-team watermark of the last successful run, so
// the next sighting window starts where the previous one ended regardless of
// when the next run is triggered.
type RunJournal interface {
	// LastRun returns the zero time when the team has never completed a run.
	LastRun(ctx context.Context, teamID string) (time.Time, error)
	RecordRun(ctx context.Context, teamID string, ranAt time.Time) error
}

// Notifier publishes the run summary to an operator channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler controls when sync runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
