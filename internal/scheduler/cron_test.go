package scheduler

import (
	"testing"
	"time"
)

func TestValidateCronExpr(t *testing.T) {
	valid := []string{"0 3 * * *", "*/15 * * * *", "30 2 1 * *"}
	for _, expr := range valid {
		if err := ValidateCronExpr(expr); err != nil {
			t.Errorf("expression %q should be valid: %v", expr, err)
		}
	}

	invalid := []string{"", "not cron", "61 * * * *", "* * * * * *"}
	for _, expr := range invalid {
		if err := ValidateCronExpr(expr); err == nil {
			t.Errorf("expression %q should be rejected", expr)
		}
	}
}

func TestNextCleanupAt(t *testing.T) {
	from := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	next, err := NextCleanupAt("0 3 * * *", from)
	if err != nil {
		t.Fatalf("next cleanup at: %v", err)
	}
	want := time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}
