package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"interview-scheduler/core/errors"
	"interview-scheduler/core/logger"
	availabilityEntity "interview-scheduler/modules/availability/entity"
	availabilityService "interview-scheduler/modules/availability/service"
	"interview-scheduler/modules/calendar/entity"
	"interview-scheduler/modules/calendar/repository"
)

// CalendarService is the read-only view of one participant's calendars.
type CalendarService interface {
	GetConnections(ctx context.Context, participantID string) ([]entity.CalendarConnection, *errors.AppError)
	GetFreeBusy(ctx context.Context, participantID string, window availabilityEntity.Interval) (*availabilityEntity.ParticipantAvailability, *errors.AppError)
}

type calendarService struct {
	repo          repository.CalendarRepository
	resolver      availabilityService.AvailabilityResolver
	maxWindowDays int
}

func NewCalendarService(repo repository.CalendarRepository, resolver availabilityService.AvailabilityResolver, maxWindowDays int) CalendarService {
	return &calendarService{repo: repo, resolver: resolver, maxWindowDays: maxWindowDays}
}

func (s *calendarService) GetConnections(ctx context.Context, participantID string) ([]entity.CalendarConnection, *errors.AppError) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "participant id is required", nil)
	}

	if _, err := s.repo.GetParticipant(ctx, participantID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewAppError(errors.ErrNotFound, "participant not found", err)
		}
		logger.Error("CalendarService:GetConnections:GetParticipant:Error", "participant_id", participantID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load participant", err)
	}

	conns, err := s.repo.GetConnectionsByParticipant(ctx, participantID)
	if err != nil {
		logger.Error("CalendarService:GetConnections:List:Error", "participant_id", participantID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list calendar connections", err)
	}
	return conns, nil
}

func (s *calendarService) GetFreeBusy(ctx context.Context, participantID string, window availabilityEntity.Interval) (*availabilityEntity.ParticipantAvailability, *errors.AppError) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "participant id is required", nil)
	}
	window = availabilityEntity.NewInterval(window.Start, window.End)
	if window.IsEmpty() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "end_time must be after start_time", nil)
	}
	if s.maxWindowDays > 0 && window.Duration() > time.Duration(s.maxWindowDays)*24*time.Hour {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "window is too long", nil)
	}

	results, appErr := availabilityService.ResolvePanel(ctx, s.resolver, []string{participantID}, window, 1)
	if appErr != nil {
		return nil, appErr
	}
	return &results[0], nil
}
