package domain

import (
	"fmt"
)

// TimeOfDay is a wall-clock time within a single day, expressed as seconds
// since midnight in the venue's timezone. The valid range is [0, 86400]
// (86400 represents the literal "24:00" spec.md allows as an end bound).
type TimeOfDay int

const SecondsPerDay = 24 * 60 * 60

// ParseTimeOfDay parses an "HH:MM" or "HH:MM:SS" string, accepting "24:00".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	n, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec)
	if n < 2 || (err != nil && n != 2) {
		n2, err2 := fmt.Sscanf(s, "%d:%d", &h, &m)
		if n2 != 2 || err2 != nil {
			return 0, fmt.Errorf("invalid time-of-day %q", s)
		}
		sec = 0
	}
	total := h*3600 + m*60 + sec
	if total < 0 || total > SecondsPerDay {
		return 0, fmt.Errorf("time-of-day %q out of range [00:00,24:00]", s)
	}
	return TimeOfDay(total), nil
}

// PhaseRecord is one configured segment of a venue's daily trading-phase
// schedule (spec §3, §4.9).
type PhaseRecord struct {
	Begin              TimeOfDay
	End                TimeOfDay
	EndRangeSeconds    int
	Phase              TradingPhase
	AllowCancelsOnHalt bool
}

// Validate enforces Begin < End. It does not check the [00:00,24:00]
// bound; ParseTimeOfDay enforces that when parsing.
func (p PhaseRecord) Validate() error {
	if !(p.Begin < p.End) {
		return fmt.Errorf("phase record invalid: begin (%d) must be before end (%d)", p.Begin, p.End)
	}
	return nil
}
