package service

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/popeskul/cadence/internal/models"
)

const (
	windowStartMinute = 8 * 60
	windowEndMinute   = 20 * 60
)

// ComputeStartTime picks the first delivery time of a submission: at least
// one cadence interval after now, inside the 08:00-20:00 window of timezone,
// at a minute spread by a hash of the submission id.
func ComputeStartTime(submissionID uuid.UUID, timezone string, cadence models.Cadence, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidTimezone, timezone)
	}

	fraction := idFraction(submissionID)

	minTime := now.In(loc).Add(cadence.Interval())
	year, month, day := minTime.Date()
	minuteOfDay := minTime.Hour()*60 + minTime.Minute()

	switch {
	case minuteOfDay < windowStartMinute:
		minuteOfDay = windowStartMinute
	case minuteOfDay >= windowEndMinute:
		minuteOfDay = windowStartMinute
		day++
	}

	minute := minuteOfDay + int(fraction*float64(windowEndMinute-minuteOfDay))

	return time.Date(year, month, day, minute/60, minute%60, 0, 0, loc), nil
}

// idFraction maps the id onto [0, 1) using the top 53 bits of its SHA-256,
// which a float64 represents exactly.
func idFraction(id uuid.UUID) float64 {
	sum := sha256.Sum256([]byte(id.String()))
	return float64(binary.BigEndian.Uint64(sum[:8])>>11) / (1 << 53)
}
