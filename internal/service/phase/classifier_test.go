package phase

import (
	"math/rand"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func TestClassifier_Classify_Boundaries(t *testing.T) {
	classifier := NewClassifier(time.UTC)
	now := date(2025, 1, 1, 0, 0)

	tests := []struct {
		name  string
		dueAt time.Time
		want  domain.Phase
	}{
		{name: "daysOut=30 late in the day is white", dueAt: date(2025, 1, 31, 23, 59), want: domain.PhaseWhite},
		{name: "daysOut=31 is dormant", dueAt: date(2025, 2, 1, 0, 0), want: domain.PhaseDormant},
		{name: "daysOut=15 is white", dueAt: date(2025, 1, 16, 0, 0), want: domain.PhaseWhite},
		{name: "daysOut=14 is green", dueAt: date(2025, 1, 15, 0, 0), want: domain.PhaseGreen},
		{name: "daysOut=8 is green", dueAt: date(2025, 1, 9, 0, 0), want: domain.PhaseGreen},
		{name: "daysOut=7 is yellow", dueAt: date(2025, 1, 8, 0, 0), want: domain.PhaseYellow},
		{name: "daysOut=4 is yellow", dueAt: date(2025, 1, 5, 0, 0), want: domain.PhaseYellow},
		{name: "daysOut=3 is red", dueAt: date(2025, 1, 4, 0, 0), want: domain.PhaseRed},
		{name: "daysOut=0 is red", dueAt: date(2025, 1, 1, 18, 0), want: domain.PhaseRed},
		{name: "daysLate=1 is overdue", dueAt: date(2024, 12, 31, 0, 0), want: domain.PhaseOverdue},
		{name: "daysLate=13 is overdue", dueAt: date(2024, 12, 19, 0, 0), want: domain.PhaseOverdue},
		{name: "daysLate=14 is wayOverdue", dueAt: date(2024, 12, 18, 0, 0), want: domain.PhaseWayOverdue},
		{name: "daysLate=29 is wayOverdue", dueAt: date(2024, 12, 3, 0, 0), want: domain.PhaseWayOverdue},
		{name: "daysLate=30 is expired", dueAt: date(2024, 12, 2, 0, 0), want: domain.PhaseExpired},
		{name: "daysLate=400 is expired", dueAt: date(2023, 11, 28, 0, 0), want: domain.PhaseExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(now, ptr(tt.dueAt))
			if got != tt.want {
				t.Errorf("Classify(%v, %v) = %v, want %v", now, tt.dueAt, got, tt.want)
			}
		})
	}
}

func TestClassifier_Classify_IgnoresTimeOfDay(t *testing.T) {
	classifier := NewClassifier(time.UTC)

	// Due earlier today than now is still daysOut=0.
	now := date(2025, 3, 10, 23, 30)
	dueAt := date(2025, 3, 10, 0, 5)
	if got := classifier.Classify(now, &dueAt); got != domain.PhaseRed {
		t.Errorf("due earlier same day = %v, want red", got)
	}

	// One minute past midnight is a full calendar day late.
	now = date(2025, 3, 11, 0, 1)
	dueAt = date(2025, 3, 10, 23, 59)
	if got := classifier.Classify(now, &dueAt); got != domain.PhaseOverdue {
		t.Errorf("due just before midnight = %v, want overdue", got)
	}
}

func TestClassifier_Classify_NoDueDate(t *testing.T) {
	classifier := NewClassifier(time.UTC)
	now := date(2025, 1, 1, 0, 0)

	if got := classifier.Classify(now, nil); got != domain.PhaseNone {
		t.Errorf("Classify(now, nil) = %v, want none", got)
	}
	if classifier.IsExpired(now, nil) {
		t.Error("IsExpired(now, nil) = true, want false")
	}
	if _, ok := classifier.DaysOut(now, nil); ok {
		t.Error("DaysOut(now, nil) ok = true, want false")
	}
}

func TestClassifier_IsExpired(t *testing.T) {
	classifier := NewClassifier(time.UTC)
	now := date(2025, 1, 1, 12, 0)

	if !classifier.IsExpired(now, ptr(date(2024, 12, 2, 0, 0))) {
		t.Error("IsExpired at daysLate=30 = false, want true")
	}
	if classifier.IsExpired(now, ptr(date(2024, 12, 3, 0, 0))) {
		t.Error("IsExpired at daysLate=29 = true, want false")
	}
}

func TestClassifier_Classify_UsesConfiguredLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	classifier := NewClassifier(tokyo)

	// 2025-01-01 20:00 UTC is already 2025-01-02 in Tokyo.
	now := date(2025, 1, 1, 20, 0)
	dueAt := date(2025, 1, 1, 10, 0) // 2025-01-01 19:00 JST

	if got := classifier.Classify(now, &dueAt); got != domain.PhaseOverdue {
		t.Errorf("Classify in JST = %v, want overdue", got)
	}

	utc := NewClassifier(nil)
	if got := utc.Classify(now, &dueAt); got != domain.PhaseRed {
		t.Errorf("Classify in UTC = %v, want red", got)
	}
}

func TestCalendarDayDistance_AcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}

	// 2025-03-09 is a 23-hour day in New York.
	from := time.Date(2025, 3, 8, 23, 0, 0, 0, ny)
	to := time.Date(2025, 3, 10, 0, 30, 0, 0, ny)

	if got := CalendarDayDistance(from, to, ny); got != 2 {
		t.Errorf("CalendarDayDistance across spring forward = %d, want 2", got)
	}
	if got := CalendarDayDistance(to, from, ny); got != -2 {
		t.Errorf("CalendarDayDistance reversed = %d, want -2", got)
	}
}

func TestClassifier_Classify_Totality(t *testing.T) {
	classifier := NewClassifier(time.UTC)
	rng := rand.New(rand.NewSource(42))
	base := date(2025, 1, 1, 0, 0)

	for i := 0; i < 500; i++ {
		now := base.Add(time.Duration(rng.Int63n(int64(365 * 24 * time.Hour))))
		dueAt := now.Add(time.Duration(rng.Int63n(int64(200*24*time.Hour))) - 100*24*time.Hour)

		got := classifier.Classify(now, &dueAt)
		if !got.IsValid() || got == domain.PhaseNone {
			t.Fatalf("Classify(%v, %v) = %q, want a dated phase", now, dueAt, got)
		}
		if again := classifier.Classify(now, &dueAt); again != got {
			t.Fatalf("Classify not idempotent: %v then %v", got, again)
		}
	}
}
