package phase

import (
	"time"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

// Day thresholds for the future-looking table. Each value is the inclusive
// upper bound of the phase below it.
const (
	WhiteMaxDaysOut  = 30
	GreenMaxDaysOut  = 14
	YellowMaxDaysOut = 7
	RedMaxDaysOut    = 3
)

// Day thresholds for late tasks, as inclusive lower bounds.
const (
	ExpiredMinDaysLate    = 30
	WayOverdueMinDaysLate = 14
	OverdueMinDaysLate    = 1
)

type Classifier struct {
	loc *time.Location
}

// NewClassifier returns a classifier that evaluates calendar days in loc.
// A nil loc means UTC.
func NewClassifier(loc *time.Location) *Classifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Classifier{loc: loc}
}

func (c *Classifier) Location() *time.Location {
	return c.loc
}

// Classify assigns the urgency phase for a task due at dueAt as seen at now.
func (c *Classifier) Classify(now time.Time, dueAt *time.Time) domain.Phase {
	if dueAt == nil {
		return domain.PhaseNone
	}

	daysOut := CalendarDayDistance(now, *dueAt, c.loc)

	switch {
	case daysOut > WhiteMaxDaysOut:
		return domain.PhaseDormant
	case daysOut > GreenMaxDaysOut:
		return domain.PhaseWhite
	case daysOut > YellowMaxDaysOut:
		return domain.PhaseGreen
	case daysOut > RedMaxDaysOut:
		return domain.PhaseYellow
	case daysOut >= 0:
		return domain.PhaseRed
	}

	daysLate := CalendarDayDistance(*dueAt, now, c.loc)

	switch {
	case daysLate >= ExpiredMinDaysLate:
		return domain.PhaseExpired
	case daysLate >= WayOverdueMinDaysLate:
		return domain.PhaseWayOverdue
	case daysLate >= OverdueMinDaysLate:
		return domain.PhaseOverdue
	default:
		// Only reachable if the two distances disagree on the same day.
		return domain.PhaseRed
	}
}

func (c *Classifier) IsExpired(now time.Time, dueAt *time.Time) bool {
	return c.Classify(now, dueAt) == domain.PhaseExpired
}

// DaysOut is the signed calendar-day distance from now to dueAt in the
// classifier's location. ok is false when dueAt is nil.
func (c *Classifier) DaysOut(now time.Time, dueAt *time.Time) (days int, ok bool) {
	if dueAt == nil {
		return 0, false
	}
	return CalendarDayDistance(now, *dueAt, c.loc), true
}

// CalendarDayDistance counts whole calendar days from from's day to to's day
// in loc. Time of day is ignored and DST transitions do not shift the result.
func CalendarDayDistance(from, to time.Time, loc *time.Location) int {
	return dayNumber(to, loc) - dayNumber(from, loc)
}

// dayNumber maps t to a day count whose differences are exact, by projecting
// its local calendar date onto UTC midnight.
func dayNumber(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60
