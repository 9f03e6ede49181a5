package entity

import (
	"time"

	availabilityEntity "interview-scheduler/modules/availability/entity"
)

type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "MORNING"
	TimeOfDayAfternoon TimeOfDay = "AFTERNOON"
	TimeOfDayEvening   TimeOfDay = "EVENING"
	TimeOfDayAny       TimeOfDay = "ANY"
)

// Valid reports whether t is one of the known values. Empty counts as ANY.
func (t TimeOfDay) Valid() bool {
	switch t {
	case "", TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening, TimeOfDayAny:
		return true
	}
	return false
}

// Matches reports whether hour (0-23, local) falls in t.
// Morning is before 12:00, afternoon 12:00 to 17:00, evening from 17:00.
func (t TimeOfDay) Matches(hour int) bool {
	switch t {
	case TimeOfDayMorning:
		return hour < 12
	case TimeOfDayAfternoon:
		return hour >= 12 && hour < 17
	case TimeOfDayEvening:
		return hour >= 17
	default:
		return true
	}
}

// SlotPreferences are the scoring knobs of a query.
// Zero values mean: any time of day, no preferred days, back-to-back allowed, no gap.
type SlotPreferences struct {
	PreferredTimeOfDay          TimeOfDay
	PreferredDays               []int
	AvoidBackToBack             bool
	MinGapBetweenInterviewsMins int
}

func DefaultSlotPreferences() SlotPreferences {
	return SlotPreferences{PreferredTimeOfDay: TimeOfDayAny}
}

// SuggestionQuery is one request to the engine. Nil pointers take the platform defaults.
type SuggestionQuery struct {
	ParticipantIDs   []string
	DurationMins     int
	SearchWindow     availabilityEntity.Interval
	MaxSuggestions   int
	Timezone         string
	MinNoticeMins    *int
	BufferBeforeMins *int
	BufferAfterMins  *int
	Preferences      *SlotPreferences
}

// SlotSuggestion is one ranked, bookable slot.
type SlotSuggestion struct {
	Interval                   availabilityEntity.Interval
	Score                      float64
	Reasons                    []string
	PerParticipantAvailability map[string]availabilityEntity.ResolutionStatus
}

// State is the engine's progress through one request.
type State string

const (
	StateCollecting State = "COLLECTING"
	StateReducing   State = "REDUCING"
	StateSlicing    State = "SLICING"
	StateScoring    State = "SCORING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

type ParticipantSummary struct {
	ID     string
	Name   string
	Kind   availabilityEntity.ParticipantKind
	Status availabilityEntity.ResolutionStatus
}

type SuggestionResult struct {
	Suggestions         []SlotSuggestion
	TotalAvailableSlots int
	QueryRange          availabilityEntity.Interval
	Timezone            *time.Location
	ProcessingTime      time.Duration
	Participants        []ParticipantSummary
	PartialExternalData bool
	Warnings            []string
	State               State
}
