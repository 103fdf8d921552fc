package ingest

import (
	"context"
	"testing"
	"time"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/source"
)

type fakeMailbox struct {
	messages []Message
	since    time.Time
}

func (f *fakeMailbox) Messages(_ context.Context, _ string, since time.Time) ([]Message, error) {
	f.since = since
	return f.messages, nil
}

func TestMailboxSourceAggregatesPerSender(t *testing.T) {
	t.Parallel()

	first := time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	lister := &fakeMailbox{messages: []Message{
		{From: `"Jane Doe" <Jane@Acme.com>`, SentAt: second, HTMLBody: `
			<html><body><p>See you Thursday.</p>
			<div class="signature">
				Jane Doe<br>
				VP Sales at Acme Corp<br>
				<a href="tel:+15551230987">+1 555 123 0987</a>
			</div></body></html>`},
		{From: `jane@acme.com`, SentAt: first},
		{From: `broken address without brackets @`, SentAt: first},
	}}

	src := NewMailboxSource(lister)
	raws, err := src.Fetch(context.Background(), source.Request{
		TeamID:  "team-1",
		Since:   first.Add(-time.Hour),
		Options: map[string]string{"mailbox": "sales@ourco.com"},
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(raws) != 1 {
		t.Fatalf("expected one aggregated correspondent, got %d", len(raws))
	}

	jane := raws[0]
	if jane.InteractionCount != 2 {
		t.Fatalf("both messages must count, got %d", jane.InteractionCount)
	}
	if !jane.LastInteractionAt.Equal(second) {
		t.Fatalf("latest message must win, got %v", jane.LastInteractionAt)
	}
	if jane.FullName != "Jane Doe" {
		t.Fatalf("display name must be kept, got %q", jane.FullName)
	}
	if jane.Phone != "+15551230987" {
		t.Fatalf("tel: link must populate phone, got %q", jane.Phone)
	}
	if jane.Title != "VP Sales" || jane.CompanyName != "Acme Corp" {
		t.Fatalf("signature title/company must be extracted, got %q / %q", jane.Title, jane.CompanyName)
	}
	if jane.Source != domain.SourceMailbox {
		t.Fatalf("unexpected source: %q", jane.Source)
	}
	if !lister.since.Equal(first.Add(-time.Hour)) {
		t.Fatalf("since bound must be forwarded to the transport, got %v", lister.since)
	}
}

func TestMailboxSourceNamelessSenderFallsBackToLocalPart(t *testing.T) {
	t.Parallel()

	lister := &fakeMailbox{messages: []Message{
		{From: "ops@initech.com", SentAt: time.Now()},
	}}

	src := NewMailboxSource(lister)
	raws, err := src.Fetch(context.Background(), source.Request{
		Options: map[string]string{"mailbox": "sales@ourco.com"},
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(raws) != 1 || raws[0].FullName != "ops" {
		t.Fatalf("expected local-part fallback name, got %+v", raws)
	}
}

func TestExtractSignatureFromPlainTail(t *testing.T) {
	t.Parallel()

	sig := extractSignature(`<html><body>
		<p>Thanks!</p>
		<p>John Roe</p>
		<p>CTO @ Initech</p>
		<p>555 987 6543</p>
	</body></html>`)

	if sig.title != "CTO" || sig.company != "Initech" {
		t.Fatalf("unexpected title/company: %q / %q", sig.title, sig.company)
	}
	if sig.phone != "555 987 6543" {
		t.Fatalf("unexpected phone: %q", sig.phone)
	}
}
