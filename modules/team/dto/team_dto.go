package dto

import (
	"time"

	availabilityEntity "interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/team/entity"
)

// ===================== Request DTOs =====================

// TimeRange is an RFC3339 [start, end) pair
type TimeRange struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

// TeamAvailabilityRequest for POST /team-availability
type TeamAvailabilityRequest struct {
	ParticipantIDs   []string  `json:"participant_ids" validate:"required,min=1,dive,required"`
	SearchWindow     TimeRange `json:"search_window"`
	SlotDurationMins int       `json:"slot_duration_mins" validate:"omitempty,min=5"`
	Timezone         string    `json:"timezone" validate:"omitempty,timezone"`
}

// ===================== Response DTOs =====================

// SlotDTO for one display-grid cell
type SlotDTO struct {
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DayOfWeek     string    `json:"day_of_week"`
	FormattedDate string    `json:"formatted_date"`
	FormattedTime string    `json:"formatted_time"`
}

// UserAvailabilityDTO for one participant row
type UserAvailabilityDTO struct {
	ParticipantID string      `json:"participant_id"`
	DisplayName   string      `json:"display_name"`
	Kind          string      `json:"kind,omitempty"`
	State         string      `json:"state"`
	Reason        string      `json:"reason,omitempty"`
	IsDegraded    bool        `json:"is_degraded"`
	FreeIntervals []TimeRange `json:"free_intervals"`
	Slots         []SlotDTO   `json:"slots"`
}

// TeamAvailabilityResponse for POST /team-availability
type TeamAvailabilityResponse struct {
	UserAvailability    []UserAvailabilityDTO `json:"user_availability"`
	CommonSlots         []SlotDTO             `json:"common_slots"`
	QueryRange          TimeRange             `json:"query_range"`
	SlotDurationMins    int                   `json:"slot_duration_mins"`
	PartialExternalData bool                  `json:"partial_external_data"`
	Warnings            []string              `json:"warnings"`
}

// ===================== Mapper Functions =====================

// ToQuery maps the request to a service query
func (r *TeamAvailabilityRequest) ToQuery() entity.TeamQuery {
	return entity.TeamQuery{
		ParticipantIDs:   r.ParticipantIDs,
		SearchWindow:     availabilityEntity.NewInterval(r.SearchWindow.Start, r.SearchWindow.End),
		SlotDurationMins: r.SlotDurationMins,
	}
}

// ToSlotDTO maps a grid slot to DTO, formatting display fields in loc
func ToSlotDTO(s availabilityEntity.Interval, loc *time.Location) SlotDTO {
	start := s.Start.In(loc)
	end := s.End.In(loc)
	return SlotDTO{
		StartTime:     start,
		EndTime:       end,
		DayOfWeek:     start.Weekday().String(),
		FormattedDate: start.Format("2006-01-02"),
		FormattedTime: start.Format("15:04") + " - " + end.Format("15:04"),
	}
}

func toSlots(list []availabilityEntity.Interval, loc *time.Location) []SlotDTO {
	out := make([]SlotDTO, 0, len(list))
	for _, s := range list {
		out = append(out, ToSlotDTO(s, loc))
	}
	return out
}

func toRanges(list []availabilityEntity.Interval, loc *time.Location) []TimeRange {
	out := make([]TimeRange, 0, len(list))
	for _, iv := range list {
		out = append(out, TimeRange{Start: iv.Start.In(loc), End: iv.End.In(loc)})
	}
	return out
}

// ToTeamAvailabilityResponse maps the service result to DTO. A nil loc means UTC.
func ToTeamAvailabilityResponse(res *entity.TeamAvailability, loc *time.Location) *TeamAvailabilityResponse {
	if loc == nil {
		loc = time.UTC
	}
	resp := &TeamAvailabilityResponse{
		UserAvailability:    make([]UserAvailabilityDTO, 0, len(res.Users)),
		CommonSlots:         toSlots(res.CommonSlots, loc),
		QueryRange:          TimeRange{Start: res.QueryRange.Start.In(loc), End: res.QueryRange.End.In(loc)},
		SlotDurationMins:    res.SlotDurationMins,
		PartialExternalData: res.PartialExternalData,
		Warnings:            res.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}

	for _, u := range res.Users {
		resp.UserAvailability = append(resp.UserAvailability, UserAvailabilityDTO{
			ParticipantID: u.ParticipantID,
			DisplayName:   u.DisplayName,
			Kind:          string(u.Kind),
			State:         string(u.Status.State),
			Reason:        u.Status.Reason,
			IsDegraded:    u.IsDegraded,
			FreeIntervals: toRanges(u.FreeIntervals, loc),
			Slots:         toSlots(u.Slots, loc),
		})
	}

	return resp
}
