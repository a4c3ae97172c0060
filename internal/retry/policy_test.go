package retry

import (
	"testing"
	"time"

	"github.com/shaiso/Syncline/internal/domain"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func baseSchedule() domain.Schedule {
	return domain.Schedule{
		SubjectID:   "42",
		IntervalMin: 30,
		Priority:    domain.PriorityNormal,
		Enabled:     true,
		NextRunAt:   testNow.Add(-time.Minute),
	}
}

func TestBackoff(t *testing.T) {
	// backoff(n) = min(5 * 2^n, 60) минут
	cases := []struct {
		n    int
		want time.Duration
	}{
		{0, 5 * time.Minute},
		{1, 10 * time.Minute},
		{2, 20 * time.Minute},
		{3, 40 * time.Minute},
		{4, 60 * time.Minute},
		{10, 60 * time.Minute},
	}

	for _, c := range cases {
		if got := Backoff(c.n); got != c.want {
			t.Errorf("Backoff(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestNextState_Success(t *testing.T) {
	s := baseSchedule()
	s.RetryCount = 2
	s.LastError = "remote sync failed"

	next := NextState(s, Succeeded(), testNow)

	if next.RetryCount != 0 {
		t.Errorf("retry count should reset, got %d", next.RetryCount)
	}
	if next.LastError != "" {
		t.Errorf("last error should clear, got %q", next.LastError)
	}
	if want := testNow.Add(30 * time.Minute); !next.NextRunAt.Equal(want) {
		t.Errorf("next run at = %v, want %v", next.NextRunAt, want)
	}
	if !next.Enabled {
		t.Error("enabled should be unchanged on success")
	}
}

func TestNextState_Success_KeepsDisabled(t *testing.T) {
	// Успех не включает выключенное расписание — включение только явное.
	s := baseSchedule()
	s.Enabled = false

	next := NextState(s, Succeeded(), testNow)

	if next.Enabled {
		t.Error("success must not re-enable a disabled schedule")
	}
}

func TestNextState_Failure_Backoff(t *testing.T) {
	// После n подряд ошибок: RetryCount=n, NextRunAt = now + backoff(n).
	s := baseSchedule()

	for n := 1; n < MaxRetries; n++ {
		s = NextState(s, Failed("remote sync failed"), testNow)

		if s.RetryCount != n {
			t.Fatalf("after %d failures retry count = %d", n, s.RetryCount)
		}
		if s.LastError != "remote sync failed" {
			t.Fatalf("last error = %q", s.LastError)
		}
		if !s.Enabled {
			t.Fatalf("schedule disabled too early, after %d failures", n)
		}
		if want := testNow.Add(Backoff(n)); !s.NextRunAt.Equal(want) {
			t.Fatalf("after %d failures next run at = %v, want %v", n, s.NextRunAt, want)
		}
	}
}

func TestNextState_Failure_Terminal(t *testing.T) {
	s := baseSchedule()
	s.RetryCount = MaxRetries - 1
	prevNextRun := s.NextRunAt

	next := NextState(s, Failed("connection refused"), testNow)

	if next.Enabled {
		t.Error("schedule should be disabled at max retries")
	}
	if next.RetryCount != MaxRetries {
		t.Errorf("retry count = %d, want %d", next.RetryCount, MaxRetries)
	}
	if want := TerminalPrefix + "connection refused"; next.LastError != want {
		t.Errorf("last error = %q, want %q", next.LastError, want)
	}
	if !next.NextRunAt.Equal(prevNextRun) {
		t.Error("next run at should be unchanged in terminal state")
	}
}

func TestNextState_Pure(t *testing.T) {
	// Вход не модифицируется.
	s := baseSchedule()
	orig := s

	_ = NextState(s, Failed("boom"), testNow)

	if s != orig {
		t.Error("NextState must not mutate its input")
	}
}
