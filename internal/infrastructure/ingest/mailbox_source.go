package ingest

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/identity"
	"ProspectPulse/internal/source"
)

const mailboxOption = "mailbox"

var (
	phoneExpr = regexp.MustCompile(`\+?[0-9][0-9 ().-]{6,18}[0-9]`)
	// "VP Sales at Acme Corp" / "CTO @ Initech" signature lines.
	titleCompanyExpr = regexp.MustCompile(`(?i)^([\w .,'&/-]{2,60})\s+(?:at|@)\s+([\w .,'&-]{2,60})$`)
)

// Message is one mail item as delivered by the mailbox transport. The
// transport itself (IMAP, provider webhook, export dump) lives behind
// MessageLister; this source only interprets the content.
type Message struct {
	From     string
	SentAt   time.Time
	HTMLBody string
}

// MessageLister fetches the mailbox messages seen since the previous run.
type MessageLister interface {
	Messages(ctx context.Context, mailbox string, since time.Time) ([]Message, error)
}

// MailboxSource folds mailbox traffic into raw sightings: one per
// correspondent, with the interaction count carrying how many messages were
// observed this run. HTML bodies are mined for signature data (phone, title,
// company).
type MailboxSource struct {
	lister MessageLister
}

var _ source.Source = (*MailboxSource)(nil)

// NewMailboxSource wires the mailbox transport.
func NewMailboxSource(lister MessageLister) *MailboxSource {
	return &MailboxSource{lister: lister}
}

// Name identifies the strategy inside the registry.
func (m *MailboxSource) Name() string {
	return string(domain.SourceMailbox)
}

// Fetch aggregates messages per sender address. Each run covers only messages
// after req.Since, so a correspondent's interaction count is merged exactly
// once per physical message.
func (m *MailboxSource) Fetch(ctx context.Context, req source.Request) ([]domain.RawContact, error) {
	if m.lister == nil {
		return nil, fmt.Errorf("mailbox source: message lister is not configured")
	}
	mailbox := req.Options[mailboxOption]
	if mailbox == "" {
		return nil, fmt.Errorf("mailbox source: option %q required for team %s", mailboxOption, req.TeamID)
	}

	messages, err := m.lister.Messages(ctx, mailbox, req.Since)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	now := time.Now().UTC()
	byAddress := map[string]*domain.RawContact{}
	var order []string

	for _, msg := range messages {
		addr, err := mail.ParseAddress(msg.From)
		if err != nil {
			continue
		}

		key := identity.NormalizeEmail(addr.Address)
		raw, ok := byAddress[key]
		if !ok {
			raw = &domain.RawContact{
				Email:      addr.Address,
				FullName:   strings.TrimSpace(addr.Name),
				Source:     domain.SourceMailbox,
				SourceID:   key,
				LastSyncAt: now,
			}
			byAddress[key] = raw
			order = append(order, key)
		}

		raw.InteractionCount++
		if msg.SentAt.After(raw.LastInteractionAt) {
			raw.LastInteractionAt = msg.SentAt
		}

		sig := extractSignature(msg.HTMLBody)
		if raw.Phone == "" {
			raw.Phone = sig.phone
		}
		if raw.Title == "" {
			raw.Title = sig.title
		}
		if raw.CompanyName == "" {
			raw.CompanyName = sig.company
		}
	}

	raws := make([]domain.RawContact, 0, len(order))
	for _, key := range order {
		raw := byAddress[key]
		if raw.FullName == "" {
			// Identity invariant requires a name; fall back to the
			// address local part.
			raw.FullName = strings.SplitN(raw.Email, "@", 2)[0]
		}
		raws = append(raws, *raw)
	}

	return raws, nil
}

type signature struct {
	title   string
	company string
	phone   string
}

// extractSignature mines an HTML body for signature facts. Best effort: a
// missing or text-only body yields an empty signature, never an error.
func extractSignature(htmlBody string) signature {
	var sig signature
	if strings.TrimSpace(htmlBody) == "" {
		return sig
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return sig
	}

	if href, ok := doc.Find(`a[href^="tel:"]`).First().Attr("href"); ok {
		sig.phone = strings.TrimPrefix(href, "tel:")
	}

	// Prefer an explicit signature block; fall back to the trailing lines of
	// the whole body.
	block := doc.Find(".signature, #signature").First()
	text := block.Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	lines := strings.Split(text, "\n")
	tail := lines
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}

	for _, line := range tail {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sig.phone == "" {
			if match := phoneExpr.FindString(line); match != "" && strings.Count(match, " ") < 4 {
				sig.phone = strings.TrimSpace(match)
			}
		}
		if sig.title == "" {
			if groups := titleCompanyExpr.FindStringSubmatch(line); groups != nil {
				sig.title = strings.TrimSpace(groups[1])
				sig.company = strings.TrimSpace(groups[2])
			}
		}
	}

	return sig
}
