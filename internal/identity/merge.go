package identity

import (
	"time"

	"ProspectPulse/internal/domain"
)

// Merge folds an incoming raw sighting into an existing contact. Pure, no I/O,
// total: it never fails.
//
// Reconciliation policy:
//   - text fields: incoming fills only an empty existing value; an existing
//     value is never overwritten, and never blanked by an empty incoming one
//   - ConnectionStrength: max, so strength only increases
//   - InteractionCount: sum; each physical sighting carries new evidence, so
//     this field is cumulative and NOT idempotent. Callers merge each sighting
//     exactly once (the per-team run lease guards this).
//   - timestamps: more recent wins, missing treated as the epoch minimum
//
// Idempotent for every field except InteractionCount:
// Merge(Merge(e, i), i) == Merge(e, i) elsewhere.
func Merge(existing domain.Contact, incoming domain.RawContact) domain.Contact {
	merged := existing

	merged.Email = fillEmpty(existing.Email, incoming.Email)
	merged.ProfileURL = fillEmpty(existing.ProfileURL, incoming.ProfileURL)
	merged.FullName = fillEmpty(existing.FullName, incoming.FullName)
	merged.Title = fillEmpty(existing.Title, incoming.Title)
	merged.CompanyName = fillEmpty(existing.CompanyName, incoming.CompanyName)
	merged.CompanyDomain = fillEmpty(existing.CompanyDomain, incoming.CompanyDomain)
	merged.Phone = fillEmpty(existing.Phone, incoming.Phone)
	merged.SourceID = fillEmpty(existing.SourceID, incoming.SourceID)
	if merged.Source == "" {
		merged.Source = incoming.Source
	}

	if incoming.ConnectionStrength > existing.ConnectionStrength {
		merged.ConnectionStrength = incoming.ConnectionStrength
	}

	merged.InteractionCount = existing.InteractionCount + incoming.InteractionCount

	merged.LastInteractionAt = laterOf(existing.LastInteractionAt, incoming.LastInteractionAt)
	merged.LastSyncAt = laterOf(existing.LastSyncAt, incoming.LastSyncAt)

	return merged
}

// NewContact builds a fresh contact from a raw sighting when resolution found
// no candidates.
func NewContact(id, teamID string, raw domain.RawContact, now time.Time) domain.Contact {
	return domain.Contact{
		ID:                 id,
		TeamID:             teamID,
		Email:              raw.Email,
		ProfileURL:         raw.ProfileURL,
		FullName:           raw.FullName,
		Title:              raw.Title,
		CompanyName:        raw.CompanyName,
		CompanyDomain:      raw.CompanyDomain,
		Phone:              raw.Phone,
		Source:             raw.Source,
		SourceID:           raw.SourceID,
		ConnectionStrength: raw.ConnectionStrength,
		InteractionCount:   raw.InteractionCount,
		LastInteractionAt:  raw.LastInteractionAt,
		LastSyncAt:         raw.LastSyncAt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// EnrichmentSighting adapts an enrichment record into a raw sighting that is
// safe to merge repeatedly: no interaction count, no timestamps, no source
// override. Observed data always wins over purchased data.
func EnrichmentSighting(record domain.PersonRecord) domain.RawContact {
	return domain.RawContact{
		Email:         record.Email,
		ProfileURL:    record.ProfileURL,
		FullName:      record.FullName,
		Title:         record.Title,
		CompanyName:   record.CompanyName,
		CompanyDomain: record.CompanyDomain,
		Phone:         record.Phone,
	}
}

func fillEmpty(existing, incoming string) string {
	if existing != "" {
		return existing
	}
	return incoming
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
