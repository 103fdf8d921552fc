package scheduler

import (
	"testing"
	"time"
)

func TestParseDaily(t *testing.T) {
	t.Parallel()

	cases := []struct {
		spec   string
		minute int
		hour   int
		ok     bool
	}{
		{"0 6 * * *", 0, 6, true},
		{"30 23 * * *", 30, 23, true},
		{"60 6 * * *", 0, 0, false},
		{"0 24 * * *", 0, 0, false},
		{"0 6 * * 1", 0, 0, false},
		{"*/5 * * * *", 0, 0, false},
		{"not cron", 0, 0, false},
	}

	for _, tc := range cases {
		minute, hour, ok := parseDaily(tc.spec)
		if minute != tc.minute || hour != tc.hour || ok != tc.ok {
			t.Fatalf("parseDaily(%q) = (%d, %d, %v), want (%d, %d, %v)",
				tc.spec, minute, hour, ok, tc.minute, tc.hour, tc.ok)
		}
	}
}

func TestNextRunHonorsExpressionAndTimezone(t *testing.T) {
	t.Parallel()

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	sched := NewCronScheduler("0 6 * * *", berlin)

	before := time.Date(2026, time.August, 30, 5, 0, 0, 0, berlin)
	if got := sched.nextRun(before); !got.Equal(time.Date(2026, time.August, 30, 6, 0, 0, 0, berlin)) {
		t.Fatalf("next run before today's boundary = %v", got)
	}

	after := time.Date(2026, time.August, 30, 6, 0, 0, 0, berlin)
	if got := sched.nextRun(after); !got.Equal(time.Date(2026, time.August, 31, 6, 0, 0, 0, berlin)) {
		t.Fatalf("next run at the boundary must roll to tomorrow, got %v", got)
	}
}

func TestNextRunFallsBackToDailyCadence(t *testing.T) {
	t.Parallel()

	sched := NewCronScheduler("every so often", nil)
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	if got := sched.nextRun(now); !got.Equal(now.Add(24*time.Hour)) {
		t.Fatalf("unparseable spec must fall back to 24h, got %v", got)
	}
}
