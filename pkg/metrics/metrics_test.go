package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHandlerExposesIncrementedInstruments(t *testing.T) {
	t.Parallel()

	mgr := New(prometheus.NewRegistry())
	mgr.ContactProcessed()
	mgr.ContactCreated()
	mgr.ContactMerged()
	mgr.ProspectScored()
	mgr.RateLimitRetry()
	mgr.ItemFailure("store_write")
	mgr.ObserveRun(3 * time.Second)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mgr.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"prospectpulse_contacts_processed_total 1",
		"prospectpulse_contacts_created_total 1",
		"prospectpulse_contacts_merged_total 1",
		"prospectpulse_prospects_scored_total 1",
		"prospectpulse_rate_limit_retries_total 1",
		`prospectpulse_item_failures_total{class="store_write"} 1`,
		"prospectpulse_run_duration_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("scrape output missing %q:\n%s", want, body)
		}
	}
}

func TestNilManagerHandlerIsUsable(t *testing.T) {
	t.Parallel()

	var mgr *Manager
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mgr.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("nil manager handler status = %d", rec.Code)
	}
}
