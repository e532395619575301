package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
)

const (
	escalationTimezoneEnv    = "ESCALATION_TIMEZONE"
	escalationNotifiedTTLEnv = "ESCALATION_NOTIFIED_TTL_HOURS"
	escalationRunLockTTLEnv  = "ESCALATION_RUN_LOCK_TTL_SECONDS"

	defaultEscalationTimezone = "UTC"
	defaultNotifiedTTLHours   = 96
	defaultRunLockTTLSeconds  = 120
)

type EscalationConfig struct {
	// Location is the business time zone all calendar-day math runs in.
	Location    *time.Location
	NotifiedTTL time.Duration
	RunLockTTL  time.Duration
}

func LoadEscalationConfig() (*EscalationConfig, error) {
	tz := os.Getenv(escalationTimezoneEnv)
	if tz == "" {
		tz = defaultEscalationTimezone
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, tz, err)
	}

	notifiedTTL := defaultNotifiedTTLHours
	if v := os.Getenv(escalationNotifiedTTLEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			notifiedTTL = parsed
		}
	}

	runLockTTL := defaultRunLockTTLSeconds
	if v := os.Getenv(escalationRunLockTTLEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			runLockTTL = parsed
		}
	}

	return &EscalationConfig{
		Location:    loc,
		NotifiedTTL: time.Duration(notifiedTTL) * time.Hour,
		RunLockTTL:  time.Duration(runLockTTL) * time.Second,
	}, nil
}
