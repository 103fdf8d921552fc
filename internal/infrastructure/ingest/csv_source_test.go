package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/source"
)

func TestCSVSourceParsesExport(t *testing.T) {
	t.Parallel()

	data := `First Name,Last Name,URL,Email Address,Company,Position,Connected On
Jane,Doe,https://www.linkedin.com/in/janedoe/,jane@acme.com,Acme,VP Sales,14 Feb 2026
John,Roe,linkedin.com/in/johnroe,,Initech,CTO,
,,,,Orphan Row,,
`
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}

	src := NewCSVSource()
	raws, err := src.Fetch(context.Background(), source.Request{
		TeamID:  "team-1",
		Options: map[string]string{"path": path},
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(raws) != 2 {
		t.Fatalf("nameless rows must be skipped, got %d raws", len(raws))
	}

	jane := raws[0]
	if jane.FullName != "Jane Doe" || jane.Email != "jane@acme.com" || jane.Title != "VP Sales" {
		t.Fatalf("unexpected first row: %+v", jane)
	}
	if jane.Source != domain.SourceCSVExport {
		t.Fatalf("unexpected source: %q", jane.Source)
	}
	if jane.LastInteractionAt.IsZero() {
		t.Fatalf("connected-on date must populate last interaction")
	}
	if raws[1].CompanyName != "Initech" {
		t.Fatalf("unexpected second row: %+v", raws[1])
	}
}

func TestCSVSourceRequiresPathOption(t *testing.T) {
	t.Parallel()

	src := NewCSVSource()
	if _, err := src.Fetch(context.Background(), source.Request{TeamID: "team-1"}); err == nil {
		t.Fatalf("expected error for missing path option")
	}
}
