package server

import (
	"testing"
	"time"
)

func TestIsDueHourly(t *testing.T) {
	if isDue("@hourly", time.Now().Add(-30*time.Minute)) {
		t.Fatalf("half an hour since last run must not be due")
	}
	if !isDue("@hourly", time.Now().Add(-2*time.Hour)) {
		t.Fatalf("two hours since last run must be due")
	}
}

func TestIsDueDaily(t *testing.T) {
	if isDue("@daily", time.Now().Add(-23*time.Hour)) {
		t.Fatalf("23 hours since last run must not be due")
	}
	if !isDue("@daily", time.Now().Add(-25*time.Hour)) {
		t.Fatalf("25 hours since last run must be due")
	}
}

func TestIsDueZeroLastRun(t *testing.T) {
	if !isDue("@hourly", time.Time{}) {
		t.Fatalf("never-run schedule must be due")
	}
}

func TestIsDueCronExpression(t *testing.T) {
	// every 15 minutes
	if !isDue("*/15 * * * *", time.Now().Add(-time.Hour)) {
		t.Fatalf("cron schedule an hour overdue must be due")
	}
	if isDue("*/15 * * * *", time.Now()) {
		t.Fatalf("cron schedule must not fire immediately after a run")
	}
}

func TestIsDueBadExpressionFallsBackToHourly(t *testing.T) {
	if isDue("not a cron line", time.Now().Add(-30*time.Minute)) {
		t.Fatalf("bad expression must use the hourly fallback")
	}
	if !isDue("not a cron line", time.Now().Add(-2*time.Hour)) {
		t.Fatalf("bad expression overdue by the hourly fallback must be due")
	}
}
