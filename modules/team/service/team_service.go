package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"interview-scheduler/core/config"
	"interview-scheduler/core/errors"
	"interview-scheduler/core/logger"
	"interview-scheduler/core/metrics"
	availabilityEntity "interview-scheduler/modules/availability/entity"
	availabilityService "interview-scheduler/modules/availability/service"
	"interview-scheduler/modules/team/entity"
)

const minGridSlotMins = 5

// TeamAvailabilityService renders panel availability for calendar views. It
// does not score; slots are a display grid aligned to multiples of the slot size.
type TeamAvailabilityService interface {
	GetTeamAvailability(ctx context.Context, query entity.TeamQuery) (*entity.TeamAvailability, *errors.AppError)
}

type TeamConfig struct {
	PanelCap      int
	GridSlotMins  int
	MaxSlotMins   int
	MaxWindowDays int
}

func TeamConfigFrom(cfg config.SchedulingConfig) TeamConfig {
	return TeamConfig{
		PanelCap:      cfg.PanelCap,
		GridSlotMins:  cfg.GridSlotMins,
		MaxSlotMins:   cfg.MaxDurationMins,
		MaxWindowDays: cfg.MaxWindowDays,
	}
}

type teamService struct {
	resolver availabilityService.AvailabilityResolver
	cfg      TeamConfig
	metrics  *metrics.Metrics
}

func NewTeamService(resolver availabilityService.AvailabilityResolver, cfg TeamConfig, m *metrics.Metrics) TeamAvailabilityService {
	if cfg.PanelCap <= 0 {
		cfg.PanelCap = 5
	}
	if cfg.GridSlotMins <= 0 {
		cfg.GridSlotMins = 30
	}
	if cfg.MaxSlotMins < cfg.GridSlotMins {
		cfg.MaxSlotMins = 480
	}
	return &teamService{resolver: resolver, cfg: cfg, metrics: m}
}

func (s *teamService) GetTeamAvailability(ctx context.Context, query entity.TeamQuery) (*entity.TeamAvailability, *errors.AppError) {
	ids, window, slotMins, appErr := s.validate(query)
	if appErr != nil {
		s.metrics.ObserveRequest("team_availability", "rejected")
		return nil, appErr
	}

	results, appErr := availabilityService.ResolvePanel(ctx, s.resolver, ids, window, s.cfg.PanelCap)
	if appErr != nil {
		outcome := "failed"
		if appErr.Code == errors.ErrRequestCancelled {
			outcome = "cancelled"
		}
		s.metrics.ObserveRequest("team_availability", outcome)
		logger.Warn("TeamService:GetTeamAvailability:Resolve:Error", "code", appErr.Code, "error", appErr.Message)
		return nil, appErr
	}

	out := &entity.TeamAvailability{
		Users:               make([]entity.UserAvailability, 0, len(results)),
		QueryRange:          window,
		SlotDurationMins:    slotMins,
		PartialExternalData: availabilityService.PartialExternalData(results),
		Warnings:            availabilityService.DegradedWarnings(results),
	}

	free := make([][]availabilityEntity.Interval, 0, len(results))
	for _, res := range results {
		free = append(free, res.Free)
		user := entity.UserAvailability{
			ParticipantID: res.ParticipantID,
			DisplayName:   res.ParticipantID,
			Status:        res.Status,
			FreeIntervals: res.Free,
			Slots:         availabilityService.SliceIntoGrid(res.Free, slotMins),
			IsDegraded:    res.Status.State == availabilityEntity.ResolutionDegraded,
		}
		if res.Participant != nil {
			user.DisplayName = res.Participant.Name()
			user.Kind = res.Participant.Kind
		}
		out.Users = append(out.Users, user)
	}

	out.CommonIntervals = availabilityService.IntersectIntervalLists(free)
	out.CommonSlots = availabilityService.SliceIntoGrid(out.CommonIntervals, slotMins)

	s.metrics.ObserveRequest("team_availability", "ok")
	logger.Info("TeamService:GetTeamAvailability:Success",
		"participants", len(ids),
		"common_slots", len(out.CommonSlots),
		"partial_external_data", out.PartialExternalData,
	)
	return out, nil
}

func invalid(field, format string, args ...any) *errors.AppError {
	msg := fmt.Sprintf(format, args...)
	return errors.NewAppError(errors.ErrInvalidInput, msg, nil).
		WithDetails(map[string]string{"field": field, "message": msg})
}

func (s *teamService) validate(q entity.TeamQuery) ([]string, availabilityEntity.Interval, int, *errors.AppError) {
	var window availabilityEntity.Interval
	if n := len(q.ParticipantIDs); n < 1 || n > s.cfg.PanelCap {
		return nil, window, 0, invalid("participant_ids", "participant_ids must contain between 1 and %d participants", s.cfg.PanelCap)
	}
	seen := make(map[string]bool, len(q.ParticipantIDs))
	ids := make([]string, 0, len(q.ParticipantIDs))
	for _, raw := range q.ParticipantIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, window, 0, invalid("participant_ids", "participant_ids must not contain empty ids")
		}
		if seen[id] {
			return nil, window, 0, invalid("participant_ids", "participant %s is listed more than once", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}

	window = availabilityEntity.NewInterval(q.SearchWindow.Start, q.SearchWindow.End)
	if window.IsEmpty() {
		return nil, window, 0, invalid("search_window", "search_window end must be after start")
	}
	if s.cfg.MaxWindowDays > 0 && window.Duration() > time.Duration(s.cfg.MaxWindowDays)*24*time.Hour {
		return nil, window, 0, invalid("search_window", "search_window must not exceed %d days", s.cfg.MaxWindowDays)
	}

	slotMins := q.SlotDurationMins
	if slotMins == 0 {
		slotMins = s.cfg.GridSlotMins
	}
	if slotMins < minGridSlotMins || slotMins > s.cfg.MaxSlotMins {
		return nil, window, 0, invalid("slot_duration_mins", "slot_duration_mins must be between %d and %d", minGridSlotMins, s.cfg.MaxSlotMins)
	}
	return ids, window, slotMins, nil
}
