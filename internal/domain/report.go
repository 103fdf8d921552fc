package domain

import "fmt"

// RunReport accumulates per-item outcomes of one sync or scoring run. Per-item
// failures land in counters; they never abort the batch.
type RunReport struct {
	TeamID string

	Attempted int
	Created   int
	Merged    int
	Scored    int
	Skipped   int
	Failed    int
	Retried   int
}

// RecordFailure bumps the failure counters for a single item.
func (r *RunReport) RecordFailure() {
	r.Failed++
}

// Summary renders the operator-facing one-line outcome of the run.
func (r *RunReport) Summary() string {
	return fmt.Sprintf("team %s: attempted=%d created=%d merged=%d scored=%d skipped=%d failed=%d retried=%d",
		r.TeamID, r.Attempted, r.Created, r.Merged, r.Scored, r.Skipped, r.Failed, r.Retried)
}

// PersonRecord is what the enrichment provider knows about a person. Applied
// to contacts through the merge engine so enrichment never clobbers observed
// data.
type PersonRecord struct {
	FullName      string
	Email         string
	ProfileURL    string
	Title         string
	CompanyName   string
	CompanyDomain string
	Phone         string
}
