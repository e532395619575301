package schedule

import (
	"time"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

const (
	// WeeklyReminderDay is the weekday of the white phase check.
	WeeklyReminderDay = time.Monday
	// WayOverdueDelayDays is how far out the single wayOverdue check lands.
	WayOverdueDelayDays = 3
)

type Scheduler struct {
	loc *time.Location
}

// NewScheduler returns a scheduler that places slots on the wall clock of loc.
// A nil loc means UTC.
func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{loc: loc}
}

// NextRemindAt returns the next instant a reminder should fire for phase.
// ok is false for phases without reminders. A returned instant is always
// strictly after now.
func (s *Scheduler) NextRemindAt(phase domain.Phase, now time.Time) (next time.Time, ok bool) {
	switch phase {
	case domain.PhaseWhite:
		return s.nextWeekly(now), true
	case domain.PhaseGreen:
		return NoonSlots.Next(now, s.loc), true
	case domain.PhaseYellow:
		return YellowSlots.Next(now, s.loc), true
	case domain.PhaseRed:
		return RedSlots.Next(now, s.loc), true
	case domain.PhaseOverdue:
		return MorningSlots.Next(now, s.loc), true
	case domain.PhaseWayOverdue:
		return MorningSlots[0].On(addDays(now, WayOverdueDelayDays, s.loc), s.loc), true
	case domain.PhaseDormant, domain.PhaseExpired, domain.PhaseNone:
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// NextRemindAtPtr is NextRemindAt in the optional form stored on tasks.
func (s *Scheduler) NextRemindAtPtr(phase domain.Phase, now time.Time) *time.Time {
	next, ok := s.NextRemindAt(phase, now)
	if !ok {
		return nil
	}
	return &next
}

// nextWeekly returns the next Monday 09:00 strictly after now.
func (s *Scheduler) nextWeekly(now time.Time) time.Time {
	local := now.In(s.loc)
	daysUntil := (int(WeeklyReminderDay) - int(local.Weekday()) + 7) % 7

	candidate := MorningSlots[0].On(addDays(now, daysUntil, s.loc), s.loc)
	if !candidate.After(now) {
		candidate = MorningSlots[0].On(addDays(now, daysUntil+7, s.loc), s.loc)
	}
	return candidate
}
