package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/source"
)

// csvPathOption names the export file inside a source's options map.
const csvPathOption = "path"

// Recognized header spellings across professional-network export formats.
var csvHeaderAliases = map[string]string{
	"first name":    "first_name",
	"last name":     "last_name",
	"email address": "email",
	"email":         "email",
	"company":       "company",
	"position":      "title",
	"title":         "title",
	"url":           "profile_url",
	"profile url":   "profile_url",
	"phone":         "phone",
	"phone number":  "phone",
	"connected on":  "connected_on",
}

// CSVSource reads a professional-network contact export file.
type CSVSource struct{}

var _ source.Source = (*CSVSource)(nil)

// NewCSVSource builds the CSV export strategy.
func NewCSVSource() *CSVSource {
	return &CSVSource{}
}

// Name identifies the strategy inside the registry.
func (c *CSVSource) Name() string {
	return string(domain.SourceCSVExport)
}

// Fetch parses the configured export file into raw sightings. Rows without a
// full name are skipped; they cannot satisfy the contact invariant.
func (c *CSVSource) Fetch(ctx context.Context, req source.Request) ([]domain.RawContact, error) {
	path := req.Options[csvPathOption]
	if path == "" {
		return nil, fmt.Errorf("csv source: option %q required for team %s", csvPathOption, req.TeamID)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export %s: %w", path, err)
	}
	defer file.Close()

	return c.parse(ctx, file)
}

func (c *CSVSource) parse(ctx context.Context, r io.Reader) ([]domain.RawContact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := map[string]int{}
	for i, cell := range header {
		if key, ok := csvHeaderAliases[strings.ToLower(strings.TrimSpace(cell))]; ok {
			columns[key] = i
		}
	}

	now := time.Now().UTC()
	var raws []domain.RawContact
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		cell := func(key string) string {
			idx, ok := columns[key]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		name := strings.TrimSpace(cell("first_name") + " " + cell("last_name"))
		if name == "" {
			continue
		}

		raw := domain.RawContact{
			Email:       cell("email"),
			ProfileURL:  cell("profile_url"),
			FullName:    name,
			Title:       cell("title"),
			CompanyName: cell("company"),
			Phone:       cell("phone"),
			Source:      domain.SourceCSVExport,
			SourceID:    cell("profile_url"),
			LastSyncAt:  now,
		}
		if connected := cell("connected_on"); connected != "" {
			if parsed, err := time.Parse("02 Jan 2006", connected); err == nil {
				raw.LastInteractionAt = parsed
			}
		}

		raws = append(raws, raw)
	}

	return raws, nil
}
