package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	availabilityEntity "interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/suggestion/entity"
)

const (
	baselineScore        = 100.0
	timeOfDayAdjustment  = 10.0
	preferredDayBonus    = 5.0
	backToBackPenalty    = 15.0
	maxRecencyBonus      = 5.0
	reasonPreferredDay   = "Falls on a preferred day"
	reasonBackToBack     = "Back-to-back with an existing commitment"
	reasonMatchesTime    = "Matches preferred time of day"
	reasonOutsideTimeFmt = "Outside preferred time of day (%s)"
)

// scorer rates slots against one query's preferences. busy holds each
// participant's merged busy intervals.
type scorer struct {
	prefs  entity.SlotPreferences
	loc    *time.Location
	window availabilityEntity.Interval
	busy   [][]availabilityEntity.Interval
	days   map[time.Weekday]bool
}

func newScorer(prefs entity.SlotPreferences, loc *time.Location, window availabilityEntity.Interval, busy [][]availabilityEntity.Interval) scorer {
	days := make(map[time.Weekday]bool, len(prefs.PreferredDays))
	for _, d := range prefs.PreferredDays {
		days[time.Weekday(d)] = true
	}
	return scorer{prefs: prefs, loc: loc, window: window, busy: busy, days: days}
}

func (s scorer) score(slot availabilityEntity.Interval) (float64, []string) {
	score := baselineScore
	reasons := []string{}
	local := slot.Start.In(s.loc)

	if tod := s.prefs.PreferredTimeOfDay; tod != "" && tod != entity.TimeOfDayAny {
		if tod.Matches(local.Hour()) {
			score += timeOfDayAdjustment
			reasons = append(reasons, reasonMatchesTime)
		} else {
			score -= timeOfDayAdjustment
			reasons = append(reasons, fmt.Sprintf(reasonOutsideTimeFmt, strings.ToLower(string(tod))))
		}
	}

	if len(s.days) > 0 && s.days[local.Weekday()] {
		score += preferredDayBonus
		reasons = append(reasons, reasonPreferredDay)
	}

	if s.prefs.AvoidBackToBack && s.adjacentToBusy(slot) {
		score -= backToBackPenalty
		reasons = append(reasons, reasonBackToBack)
	}

	score += s.recencyBonus(slot)
	return math.Round(score*100) / 100, reasons
}

// adjacentToBusy reports whether any busy interval ends within the minimum gap
// before the slot or starts within it after the slot.
func (s scorer) adjacentToBusy(slot availabilityEntity.Interval) bool {
	gap := minGap(s.prefs)
	for _, list := range s.busy {
		for _, b := range list {
			if !b.End.After(slot.Start) && slot.Start.Sub(b.End) <= gap {
				return true
			}
			if !b.Start.Before(slot.End) && b.Start.Sub(slot.End) <= gap {
				return true
			}
		}
	}
	return false
}

func minGap(prefs entity.SlotPreferences) time.Duration {
	return time.Duration(max(prefs.MinGapBetweenInterviewsMins, 0)) * time.Minute
}

// backToBackReach is how far outside the search window a busy block can sit
// and still touch a slot. Busy lookups overlap strictly, hence the extra millisecond.
func backToBackReach(prefs entity.SlotPreferences) time.Duration {
	if !prefs.AvoidBackToBack {
		return 0
	}
	return minGap(prefs) + time.Millisecond
}

// recencyBonus falls linearly from maxRecencyBonus at the window start to zero at its end.
func (s scorer) recencyBonus(slot availabilityEntity.Interval) float64 {
	span := s.window.Duration()
	if span <= 0 {
		return 0
	}
	frac := float64(slot.Start.Sub(s.window.Start)) / float64(span)
	frac = math.Min(math.Max(frac, 0), 1)
	return maxRecencyBonus * (1 - frac)
}

func degradedCount(statuses map[string]availabilityEntity.ResolutionStatus) int {
	n := 0
	for _, st := range statuses {
		if st.State == availabilityEntity.ResolutionDegraded {
			n++
		}
	}
	return n
}

// rank orders by score descending, then earliest start, then fewer degraded participants.
func rank(suggestions []entity.SlotSuggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Interval.Start.Equal(b.Interval.Start) {
			return a.Interval.Start.Before(b.Interval.Start)
		}
		return degradedCount(a.PerParticipantAvailability) < degradedCount(b.PerParticipantAvailability)
	})
}
