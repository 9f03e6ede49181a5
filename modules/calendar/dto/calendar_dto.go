package dto

import (
	"time"

	availabilityEntity "interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/calendar/entity"
)

// ========== Calendar Connection DTOs ==========

// CalendarConnectionResponse represents a calendar connection without credentials
type CalendarConnectionResponse struct {
	ID             string    `json:"id"`
	Provider       string    `json:"provider"`
	CalendarEmail  string    `json:"calendar_email"`
	IsActive       bool      `json:"is_active"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	ConnectedAt    string    `json:"connected_at"`
}

// CalendarConnectionListResponse represents list of connections
type CalendarConnectionListResponse struct {
	ParticipantID string                       `json:"participant_id"`
	Connections   []CalendarConnectionResponse `json:"connections"`
}

// ========== Free/Busy DTOs ==========

// FreeBusyQuery binds the free/busy query string
type FreeBusyQuery struct {
	StartTime time.Time `query:"start_time" json:"start_time" validate:"required"`
	EndTime   time.Time `query:"end_time" json:"end_time" validate:"required,gtfield=StartTime"`
}

// TimeSlot represents a time period
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SourceStatus reports how one busy source was read
type SourceStatus struct {
	Source   string `json:"source"`
	Provider string `json:"provider,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Blocks   int    `json:"blocks"`
}

// FreeBusyResponse response with free/busy info of one participant
type FreeBusyResponse struct {
	ParticipantID string         `json:"participant_id"`
	State         string         `json:"state"`
	Reason        string         `json:"reason,omitempty"`
	Free          []TimeSlot     `json:"free"`
	Busy          []TimeSlot     `json:"busy"`
	Sources       []SourceStatus `json:"sources"`
}

// ========== Mappers ==========

func ToConnectionListResponse(participantID string, conns []entity.CalendarConnection) *CalendarConnectionListResponse {
	resp := &CalendarConnectionListResponse{
		ParticipantID: participantID,
		Connections:   make([]CalendarConnectionResponse, 0, len(conns)),
	}
	for _, c := range conns {
		resp.Connections = append(resp.Connections, CalendarConnectionResponse{
			ID:             c.ID.String(),
			Provider:       c.Provider,
			CalendarEmail:  c.CalendarEmail,
			IsActive:       c.IsActive,
			TokenExpiresAt: c.TokenExpiresAt,
			ConnectedAt:    c.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

func toSlots(list []availabilityEntity.Interval) []TimeSlot {
	out := make([]TimeSlot, 0, len(list))
	for _, iv := range list {
		out = append(out, TimeSlot{Start: iv.Start, End: iv.End})
	}
	return out
}

func ToFreeBusyResponse(res *availabilityEntity.ParticipantAvailability) *FreeBusyResponse {
	resp := &FreeBusyResponse{
		ParticipantID: res.ParticipantID,
		State:         string(res.Status.State),
		Reason:        res.Status.Reason,
		Free:          toSlots(res.Free),
		Busy:          toSlots(res.Busy),
		Sources:       make([]SourceStatus, 0, len(res.SourceReports)),
	}
	// account ids are connection uuids and stay server side
	for _, r := range res.SourceReports {
		resp.Sources = append(resp.Sources, SourceStatus{
			Source:   string(r.Source),
			Provider: r.Provider,
			Success:  r.Success,
			Error:    r.Error,
			Blocks:   r.Blocks,
		})
	}
	return resp
}
