package identity

import (
	"testing"
	"time"

	"ProspectPulse/internal/domain"
)

func TestMergeFillsOnlyEmptyTextFields(t *testing.T) {
	t.Parallel()

	existing := domain.Contact{
		ID:          "1",
		FullName:    "Jane Doe",
		Title:       "",
		CompanyName: "Acme",
	}
	incoming := domain.RawContact{
		FullName:    "J. Doe",
		Title:       "VP Sales",
		CompanyName: "",
	}

	merged := Merge(existing, incoming)

	if merged.FullName != "Jane Doe" {
		t.Fatalf("existing name must not be overwritten, got %q", merged.FullName)
	}
	if merged.Title != "VP Sales" {
		t.Fatalf("empty title must be filled, got %q", merged.Title)
	}
	if merged.CompanyName != "Acme" {
		t.Fatalf("existing company must not be blanked, got %q", merged.CompanyName)
	}
}

func TestMergeStrengthMonotonicity(t *testing.T) {
	t.Parallel()

	existing := domain.Contact{ConnectionStrength: 40}

	weaker := Merge(existing, domain.RawContact{ConnectionStrength: 10})
	if weaker.ConnectionStrength != 40 {
		t.Fatalf("strength must never decrease, got %d", weaker.ConnectionStrength)
	}

	stronger := Merge(existing, domain.RawContact{ConnectionStrength: 75})
	if stronger.ConnectionStrength != 75 {
		t.Fatalf("stronger signal must win, got %d", stronger.ConnectionStrength)
	}
}

func TestMergeInteractionCountAccumulates(t *testing.T) {
	t.Parallel()

	existing := domain.Contact{InteractionCount: 3}
	merged := Merge(existing, domain.RawContact{InteractionCount: 2})
	if merged.InteractionCount != 5 {
		t.Fatalf("counts accumulate across sightings, got %d", merged.InteractionCount)
	}
}

func TestMergeTimestampsMoreRecentWins(t *testing.T) {
	t.Parallel()

	older := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)

	existing := domain.Contact{LastInteractionAt: newer, LastSyncAt: older}
	incoming := domain.RawContact{LastInteractionAt: older, LastSyncAt: newer}

	merged := Merge(existing, incoming)
	if !merged.LastInteractionAt.Equal(newer) {
		t.Fatalf("last interaction must keep the newer timestamp, got %v", merged.LastInteractionAt)
	}
	if !merged.LastSyncAt.Equal(newer) {
		t.Fatalf("last sync must take the newer timestamp, got %v", merged.LastSyncAt)
	}

	// Missing incoming timestamps behave like the epoch minimum.
	unchanged := Merge(existing, domain.RawContact{})
	if !unchanged.LastInteractionAt.Equal(newer) {
		t.Fatalf("zero incoming timestamp must not regress existing value")
	}
}

func TestMergeIdempotentExceptInteractionCount(t *testing.T) {
	t.Parallel()

	existing := domain.Contact{
		ID:                 "1",
		Email:              "jane@acme.com",
		FullName:           "Jane Doe",
		ConnectionStrength: 40,
		InteractionCount:   7,
		LastSyncAt:         time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
	}
	incoming := domain.RawContact{
		ProfileURL:         "linkedin.com/in/janedoe",
		Title:              "VP Sales",
		ConnectionStrength: 55,
		InteractionCount:   2,
		LastSyncAt:         time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
	}

	once := Merge(existing, incoming)
	twice := Merge(once, incoming)

	// Neutralize the one field documented as cumulative, then compare.
	if twice.InteractionCount != once.InteractionCount+incoming.InteractionCount {
		t.Fatalf("interaction count must keep accumulating, got %d", twice.InteractionCount)
	}
	twice.InteractionCount = once.InteractionCount
	if twice != once {
		t.Fatalf("merge must be idempotent outside interaction count:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestEnrichmentSightingIsRepeatSafe(t *testing.T) {
	t.Parallel()

	existing := domain.Contact{
		FullName:         "Jane Doe",
		Title:            "VP Sales",
		InteractionCount: 4,
		Source:           domain.SourceMailbox,
	}
	record := domain.PersonRecord{
		FullName:      "Jane R. Doe",
		Title:         "SVP Sales",
		CompanyName:   "Acme",
		CompanyDomain: "acme.com",
	}

	sighting := EnrichmentSighting(record)
	once := Merge(existing, sighting)
	twice := Merge(once, sighting)

	if once.Title != "VP Sales" {
		t.Fatalf("observed title must beat purchased title, got %q", once.Title)
	}
	if once.CompanyDomain != "acme.com" {
		t.Fatalf("enrichment must fill missing fields, got %q", once.CompanyDomain)
	}
	if once.InteractionCount != 4 || twice.InteractionCount != 4 {
		t.Fatalf("enrichment must not touch interaction count, got %d/%d", once.InteractionCount, twice.InteractionCount)
	}
	if once.Source != domain.SourceMailbox {
		t.Fatalf("enrichment must not override source, got %q", once.Source)
	}
	if twice != once {
		t.Fatalf("enrichment merge must be fully idempotent")
	}
}
