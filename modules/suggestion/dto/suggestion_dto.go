package dto

import (
	"time"

	availabilityEntity "interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/suggestion/entity"
)

// ===================== Request DTOs =====================

// TimeRange is an RFC3339 [start, end) pair
type TimeRange struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

// SlotPreferencesRequest holds the optional scoring knobs
type SlotPreferencesRequest struct {
	PreferredTimeOfDay          string `json:"preferred_time_of_day" validate:"omitempty,oneof=MORNING AFTERNOON EVENING ANY"`
	PreferredDays               []int  `json:"preferred_days" validate:"omitempty,max=7,dive,min=0,max=6"`
	AvoidBackToBack             bool   `json:"avoid_back_to_back"`
	MinGapBetweenInterviewsMins int    `json:"min_gap_between_interviews_mins" validate:"min=0"`
}

// SuggestionRequest for POST /suggestions
type SuggestionRequest struct {
	ParticipantIDs   []string                `json:"participant_ids" validate:"required,min=1,dive,required"`
	DurationMins     int                     `json:"duration_mins" validate:"required"`
	SearchWindow     TimeRange               `json:"search_window"`
	MaxSuggestions   int                     `json:"max_suggestions" validate:"omitempty,min=1"`
	Timezone         string                  `json:"timezone" validate:"omitempty,timezone"`
	MinNoticeMins    *int                    `json:"min_notice_mins" validate:"omitempty,min=0"`
	BufferBeforeMins *int                    `json:"buffer_before_mins" validate:"omitempty,min=0"`
	BufferAfterMins  *int                    `json:"buffer_after_mins" validate:"omitempty,min=0"`
	Preferences      *SlotPreferencesRequest `json:"preferences"`
}

// ===================== Response DTOs =====================

// SlotSuggestionDTO for a single ranked slot
type SlotSuggestionDTO struct {
	StartTime                  time.Time                                      `json:"start_time"`
	EndTime                    time.Time                                      `json:"end_time"`
	Score                      float64                                        `json:"score"`
	Reasons                    []string                                       `json:"reasons"`
	PerParticipantAvailability map[string]availabilityEntity.ResolutionStatus `json:"per_participant_availability"`
	DayOfWeek                  string                                         `json:"day_of_week"`
	FormattedDate              string                                         `json:"formatted_date"`
	FormattedTime              string                                         `json:"formatted_time"`
}

// ParticipantStatusDTO for one panel member
type ParticipantStatusDTO struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Kind          string `json:"kind,omitempty"`
	State         string `json:"state"`
	Reason        string `json:"reason,omitempty"`
}

// SuggestionResponse for POST /suggestions
type SuggestionResponse struct {
	Suggestions         []SlotSuggestionDTO    `json:"suggestions"`
	TotalAvailableSlots int                    `json:"total_available_slots"`
	QueryRange          TimeRange              `json:"query_range"`
	ProcessingTimeMs    int64                  `json:"processing_time_ms"`
	Participants        []ParticipantStatusDTO `json:"participants"`
	PartialExternalData bool                   `json:"partial_external_data"`
	Warnings            []string               `json:"warnings"`
}

// ===================== Mapper Functions =====================

// ToQuery maps the request to an engine query
func (r *SuggestionRequest) ToQuery() entity.SuggestionQuery {
	q := entity.SuggestionQuery{
		ParticipantIDs:   r.ParticipantIDs,
		DurationMins:     r.DurationMins,
		SearchWindow:     availabilityEntity.NewInterval(r.SearchWindow.Start, r.SearchWindow.End),
		MaxSuggestions:   r.MaxSuggestions,
		Timezone:         r.Timezone,
		MinNoticeMins:    r.MinNoticeMins,
		BufferBeforeMins: r.BufferBeforeMins,
		BufferAfterMins:  r.BufferAfterMins,
	}
	if r.Preferences != nil {
		q.Preferences = &entity.SlotPreferences{
			PreferredTimeOfDay:          entity.TimeOfDay(r.Preferences.PreferredTimeOfDay),
			PreferredDays:               r.Preferences.PreferredDays,
			AvoidBackToBack:             r.Preferences.AvoidBackToBack,
			MinGapBetweenInterviewsMins: r.Preferences.MinGapBetweenInterviewsMins,
		}
	}
	return q
}

// ToSlotDTO maps a suggestion to DTO, formatting display fields in loc
func ToSlotDTO(s entity.SlotSuggestion, loc *time.Location) SlotSuggestionDTO {
	if loc == nil {
		loc = time.UTC
	}
	start := s.Interval.Start.In(loc)
	end := s.Interval.End.In(loc)

	return SlotSuggestionDTO{
		StartTime:                  start,
		EndTime:                    end,
		Score:                      s.Score,
		Reasons:                    s.Reasons,
		PerParticipantAvailability: s.PerParticipantAvailability,
		DayOfWeek:                  start.Weekday().String(),
		FormattedDate:              start.Format("2006-01-02"),
		FormattedTime:              start.Format("15:04") + " - " + end.Format("15:04"),
	}
}

// ToSuggestionResponse maps the engine result to DTO
func ToSuggestionResponse(res *entity.SuggestionResult) *SuggestionResponse {
	resp := &SuggestionResponse{
		Suggestions:         make([]SlotSuggestionDTO, 0, len(res.Suggestions)),
		TotalAvailableSlots: res.TotalAvailableSlots,
		QueryRange:          TimeRange{Start: res.QueryRange.Start, End: res.QueryRange.End},
		ProcessingTimeMs:    res.ProcessingTime.Milliseconds(),
		Participants:        make([]ParticipantStatusDTO, 0, len(res.Participants)),
		PartialExternalData: res.PartialExternalData,
		Warnings:            res.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}

	for _, s := range res.Suggestions {
		resp.Suggestions = append(resp.Suggestions, ToSlotDTO(s, res.Timezone))
	}
	for _, p := range res.Participants {
		resp.Participants = append(resp.Participants, ParticipantStatusDTO{
			ParticipantID: p.ID,
			DisplayName:   p.Name,
			Kind:          string(p.Kind),
			State:         string(p.Status.State),
			Reason:        p.Status.Reason,
		})
	}

	return resp
}
