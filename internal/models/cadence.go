package models

import (
	"fmt"
	"time"
)

// Cadence is the interval between two deliveries of one submission.
type Cadence string

const (
	CadenceHourly       Cadence = "receive-1"
	CadenceEvery4Hours  Cadence = "receive-4"
	CadenceEvery6Hours  Cadence = "receive-6"
	CadenceEvery12Hours Cadence = "receive-12"
	CadenceDaily        Cadence = "receive-daily"
)

// DefaultCadenceHours applies to any cadence missing from the lookup table.
const DefaultCadenceHours = 24

var cadenceHours = map[Cadence]int{
	CadenceHourly:       1,
	CadenceEvery4Hours:  4,
	CadenceEvery6Hours:  6,
	CadenceEvery12Hours: 12,
	CadenceDaily:        24,
}

// Hours resolves the cadence through the lookup table, falling back to
// DefaultCadenceHours for unknown values.
func (c Cadence) Hours() int {
	if h, ok := cadenceHours[c]; ok {
		return h
	}
	return DefaultCadenceHours
}

// Interval is Hours as a duration.
func (c Cadence) Interval() time.Duration {
	return time.Duration(c.Hours()) * time.Hour
}

// IsKnown reports whether the cadence is present in the lookup table.
func (c Cadence) IsKnown() bool {
	_, ok := cadenceHours[c]
	return ok
}

// ParseCadence accepts only cadences from the lookup table.
func ParseCadence(raw string) (Cadence, error) {
	c := Cadence(raw)
	if !c.IsKnown() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCadence, raw)
	}
	return c, nil
}

// RepeatPolicy decides whether delivery stops after one lap of the chain.
type RepeatPolicy string

const (
	RepeatForever RepeatPolicy = "repeat-forever"
	DoNotRepeat   RepeatPolicy = "do-not-repeat"
)

func ParseRepeatPolicy(raw string) (RepeatPolicy, error) {
	switch p := RepeatPolicy(raw); p {
	case RepeatForever, DoNotRepeat:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRepeat, raw)
	}
}
