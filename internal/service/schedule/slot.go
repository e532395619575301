package schedule

import (
	"fmt"
	"time"
)

// Slot is a local time of day at which a reminder may fire.
type Slot struct {
	Hour   int
	Minute int
}

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// On returns the instant of the slot on the calendar day of t in loc.
func (s Slot) On(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, s.Hour, s.Minute, 0, 0, loc)
}

// SlotSet is an ordered list of slots within one day.
type SlotSet []Slot

var (
	// MorningSlots is the single 09:00 check used by white, overdue and wayOverdue.
	MorningSlots = SlotSet{{Hour: 9}}
	NoonSlots    = SlotSet{{Hour: 12}}
	YellowSlots  = SlotSet{{Hour: 9}, {Hour: 12}, {Hour: 15}}
	// RedSlots fire every two hours from 08:00 through 22:00.
	RedSlots = SlotSet{
		{Hour: 8}, {Hour: 10}, {Hour: 12}, {Hour: 14},
		{Hour: 16}, {Hour: 18}, {Hour: 20}, {Hour: 22},
	}
)

// Next returns the first slot today strictly after now, or the first slot of
// the following day once today's slots are used up.
func (ss SlotSet) Next(now time.Time, loc *time.Location) time.Time {
	for _, slot := range ss {
		candidate := slot.On(now, loc)
		if candidate.After(now) {
			return candidate
		}
	}

	return ss[0].On(addDays(now, 1, loc), loc)
}

// addDays moves t by n calendar days in loc, keeping the wall clock where DST allows.
func addDays(t time.Time, n int, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+n, 12, 0, 0, 0, loc)
}
