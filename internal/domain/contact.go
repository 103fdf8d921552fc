package domain

import "time"

// ContactSource enumerates where a contact sighting came from.
type ContactSource string

const (
	SourceNetworkGraph ContactSource = "network-graph"
	SourceCSVExport    ContactSource = "csv-export"
	SourceMailbox      ContactSource = "mailbox"
)

// Contact is a core entity: a person known to a team, folded together from
// every source that has ever sighted them.
type Contact struct {
	ID     string
	TeamID string

	// Identity fields. FullName is the only required one.
	Email      string
	ProfileURL string
	FullName   string

	// Profile fields.
	Title         string
	CompanyName   string
	CompanyDomain string
	Phone         string

	// Provenance fields. ConnectionStrength is 0-100 and only meaningful
	// for network-graph sightings.
	Source             ContactSource
	SourceID           string
	ConnectionStrength int
	InteractionCount   int
	LastInteractionAt  time.Time
	LastSyncAt         time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RawContact is an ephemeral source-provided snapshot of a person. It is never
// persisted directly; every RawContact passes through resolve + merge before
// becoming (or updating) a Contact.
type RawContact struct {
	Email      string
	ProfileURL string
	FullName   string

	Title         string
	CompanyName   string
	CompanyDomain string
	Phone         string

	Source             ContactSource
	SourceID           string
	ConnectionStrength int
	InteractionCount   int
	LastInteractionAt  time.Time
	LastSyncAt         time.Time
}

// MatchType identifies which identity key produced a merge candidate.
type MatchType string

const (
	MatchEmail       MatchType = "email"
	MatchProfileURL  MatchType = "profile_url"
	MatchNameCompany MatchType = "name_company"
)

// MergeCandidate is a possible existing-record match for an incoming raw
// contact, ranked by confidence.
type MergeCandidate struct {
	ExistingID string
	MatchType  MatchType
	Confidence float64
}
