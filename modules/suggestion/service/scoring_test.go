package service

import (
	"testing"
	"time"

	availabilityEntity "interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/suggestion/entity"

	"github.com/stretchr/testify/require"
)

func TestTimeOfDayMatches(t *testing.T) {
	tests := []struct {
		tod  entity.TimeOfDay
		hour int
		want bool
	}{
		{entity.TimeOfDayMorning, 11, true},
		{entity.TimeOfDayMorning, 12, false},
		{entity.TimeOfDayAfternoon, 12, true},
		{entity.TimeOfDayAfternoon, 16, true},
		{entity.TimeOfDayAfternoon, 17, false},
		{entity.TimeOfDayEvening, 17, true},
		{entity.TimeOfDayEvening, 8, false},
		{entity.TimeOfDayAny, 3, true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.tod.Matches(tt.hour), "%s at %d", tt.tod, tt.hour)
	}
}

func TestRecencyBonus(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	window := availabilityEntity.NewInterval(start, start.Add(4*time.Hour))
	s := newScorer(entity.DefaultSlotPreferences(), time.UTC, window, nil)

	at := func(h time.Duration) availabilityEntity.Interval {
		return availabilityEntity.NewInterval(start.Add(h), start.Add(h+30*time.Minute))
	}
	require.InDelta(t, 5.0, s.recencyBonus(at(0)), 1e-9)
	require.InDelta(t, 2.5, s.recencyBonus(at(2*time.Hour)), 1e-9)
	require.InDelta(t, 0.0, s.recencyBonus(at(5*time.Hour)), 1e-9)

	empty := newScorer(entity.DefaultSlotPreferences(), time.UTC, availabilityEntity.Interval{}, nil)
	require.Zero(t, empty.recencyBonus(at(0)))
}

func TestRankTieBreaks(t *testing.T) {
	nine := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	slot := func(offset time.Duration) availabilityEntity.Interval {
		return availabilityEntity.NewInterval(nine.Add(offset), nine.Add(offset+30*time.Minute))
	}
	ok := map[string]availabilityEntity.ResolutionStatus{"a": availabilityEntity.StatusOK()}
	degraded := map[string]availabilityEntity.ResolutionStatus{"a": availabilityEntity.StatusDegraded("google: down")}

	suggestions := []entity.SlotSuggestion{
		{Interval: slot(time.Hour), Score: 100, PerParticipantAvailability: ok},
		{Interval: slot(0), Score: 100, PerParticipantAvailability: degraded},
		{Interval: slot(0), Score: 100, PerParticipantAvailability: ok},
		{Interval: slot(2 * time.Hour), Score: 110, PerParticipantAvailability: ok},
	}
	rank(suggestions)

	require.Equal(t, 110.0, suggestions[0].Score)
	require.Equal(t, slot(0), suggestions[1].Interval)
	require.Equal(t, availabilityEntity.ResolutionOK, suggestions[1].PerParticipantAvailability["a"].State)
	require.Equal(t, availabilityEntity.ResolutionDegraded, suggestions[2].PerParticipantAvailability["a"].State)
	require.Equal(t, slot(time.Hour), suggestions[3].Interval)
}
