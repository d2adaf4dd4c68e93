package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/service"
)

func TestComputeStartTime_Deterministic(t *testing.T) {
	id := uuid.MustParse("6f1c2a8e-9b47-4c1e-8a3b-2d5f7e9c0a11")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := service.ComputeStartTime(id, "America/New_York", models.CadenceDaily, now)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := service.ComputeStartTime(id, "America/New_York", models.CadenceDaily, now)
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}

func TestComputeStartTime_Window(t *testing.T) {
	zones := []string{"UTC", "America/New_York", "Europe/Berlin", "Asia/Kolkata", "Pacific/Auckland"}
	cadences := []models.Cadence{models.CadenceHourly, models.CadenceEvery4Hours, models.CadenceEvery12Hours, models.CadenceDaily}
	base := time.Date(2025, 3, 29, 0, 0, 0, 0, time.UTC)

	distinct := make(map[int]bool)
	for i := 0; i < 200; i++ {
		id := uuid.New()
		now := base.Add(time.Duration(i*37) * time.Minute)
		zone := zones[i%len(zones)]
		cadence := cadences[i%len(cadences)]

		got, err := service.ComputeStartTime(id, zone, cadence, now)
		require.NoError(t, err)

		loc, _ := time.LoadLocation(zone)
		assert.Equal(t, loc, got.Location())

		minute := got.Hour()*60 + got.Minute()
		assert.GreaterOrEqual(t, minute, 8*60, "zone=%s now=%s got=%s", zone, now, got)
		assert.Less(t, minute, 20*60, "zone=%s now=%s got=%s", zone, now, got)
		assert.Zero(t, got.Second())

		earliest := now.Add(cadence.Interval()).Truncate(time.Minute)
		assert.False(t, got.Before(earliest), "zone=%s now=%s got=%s", zone, now, got)

		distinct[minute] = true
	}

	assert.Greater(t, len(distinct), 20)
}

func TestComputeStartTime_Clamping(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		cadence models.Cadence
		wantDay time.Time
		minFrom int
	}{
		{
			name:    "before the window starts at 08:00 the same day",
			now:     time.Date(2025, 5, 10, 2, 0, 0, 0, time.UTC),
			cadence: models.CadenceHourly,
			wantDay: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
			minFrom: 8 * 60,
		},
		{
			name:    "after the window moves to the next morning",
			now:     time.Date(2025, 5, 10, 21, 15, 0, 0, time.UTC),
			cadence: models.CadenceDaily,
			wantDay: time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC),
			minFrom: 8 * 60,
		},
		{
			name:    "end of month rolls over",
			now:     time.Date(2025, 1, 31, 19, 30, 0, 0, time.UTC),
			cadence: models.CadenceHourly,
			wantDay: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			minFrom: 8 * 60,
		},
		{
			name:    "inside the window never goes earlier",
			now:     time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC),
			cadence: models.CadenceEvery6Hours,
			wantDay: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
			minFrom: 15 * 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				got, err := service.ComputeStartTime(uuid.New(), "UTC", tt.cadence, tt.now)
				require.NoError(t, err)

				y, m, d := got.Date()
				assert.Equal(t, tt.wantDay, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
				assert.GreaterOrEqual(t, got.Hour()*60+got.Minute(), tt.minFrom)
				assert.Less(t, got.Hour(), 20)
			}
		})
	}
}

func TestComputeStartTime_InvalidTimezone(t *testing.T) {
	for _, tz := range []string{"", "Mars/Olympus_Mons", "not a zone"} {
		_, err := service.ComputeStartTime(uuid.New(), tz, models.CadenceDaily, time.Now())
		assert.ErrorIs(t, err, models.ErrInvalidTimezone, "tz=%q", tz)
	}
}
