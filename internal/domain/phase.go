package domain

import "fmt"

// Phase is the urgency classification of a task relative to its due date.
type Phase string

const (
	PhaseNone       Phase = "none"
	PhaseDormant    Phase = "dormant"
	PhaseWhite      Phase = "white"
	PhaseGreen      Phase = "green"
	PhaseYellow     Phase = "yellow"
	PhaseRed        Phase = "red"
	PhaseOverdue    Phase = "overdue"
	PhaseWayOverdue Phase = "wayOverdue"
	PhaseExpired    Phase = "expired"
)

// Phases lists every phase in escalation order.
var Phases = []Phase{
	PhaseNone,
	PhaseDormant,
	PhaseWhite,
	PhaseGreen,
	PhaseYellow,
	PhaseRed,
	PhaseOverdue,
	PhaseWayOverdue,
	PhaseExpired,
}

func (p Phase) String() string {
	return string(p)
}

func (p Phase) IsValid() bool {
	switch p {
	case PhaseNone, PhaseDormant, PhaseWhite, PhaseGreen, PhaseYellow,
		PhaseRed, PhaseOverdue, PhaseWayOverdue, PhaseExpired:
		return true
	}
	return false
}

// IsNotifiable reports whether reminders fire in this phase.
func (p Phase) IsNotifiable() bool {
	switch p {
	case PhaseWhite, PhaseGreen, PhaseYellow, PhaseRed, PhaseOverdue, PhaseWayOverdue:
		return true
	}
	return false
}

func (p Phase) IsLate() bool {
	return p == PhaseOverdue || p == PhaseWayOverdue || p == PhaseExpired
}

// ParsePhase converts a stored value to a Phase. The empty string maps to PhaseNone.
func ParsePhase(s string) (Phase, error) {
	if s == "" {
		return PhaseNone, nil
	}
	p := Phase(s)
	if !p.IsValid() {
		return PhaseNone, fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}
	return p, nil
}
