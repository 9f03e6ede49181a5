package service

import (
	"context"
	"errors"
	"fmt"

	availabilityEntity "interview-scheduler/modules/availability/entity"
	availabilityService "interview-scheduler/modules/availability/service"
	"interview-scheduler/modules/calendar/repository"
)

// InternalCalendarSource reads participants, working hours and scheduled
// interviews from the platform database.
type InternalCalendarSource struct {
	repo repository.CalendarRepository
}

var _ availabilityService.InternalSource = (*InternalCalendarSource)(nil)

func NewInternalCalendarSource(repo repository.CalendarRepository) *InternalCalendarSource {
	return &InternalCalendarSource{repo: repo}
}

func (s *InternalCalendarSource) GetParticipant(ctx context.Context, participantID string) (*availabilityEntity.Participant, error) {
	rec, err := s.repo.GetParticipant(ctx, participantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", availabilityService.ErrParticipantNotFound, participantID)
		}
		return nil, err
	}

	conns, err := s.repo.GetConnectionsByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	p := &availabilityEntity.Participant{
		ID:          rec.ID,
		Kind:        availabilityEntity.ParticipantKind(rec.Kind),
		DisplayName: rec.DisplayName,
		Timezone:    rec.Timezone,
	}
	for _, c := range conns {
		p.CalendarSourceRefs = append(p.CalendarSourceRefs, availabilityEntity.CalendarSourceRef{
			AccountID: c.ID.String(),
			Provider:  c.Provider,
		})
	}
	return p, nil
}

func (s *InternalCalendarSource) GetWorkingHours(ctx context.Context, participantID string) ([]availabilityEntity.WorkingHours, error) {
	return s.repo.GetWorkingHours(ctx, participantID)
}

func (s *InternalCalendarSource) GetInternalBusyBlocks(ctx context.Context, participantID string, window availabilityEntity.Interval) ([]availabilityEntity.BusyBlock, error) {
	interviews, err := s.repo.GetBusyInterviews(ctx, participantID, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	blocks := make([]availabilityEntity.BusyBlock, 0, len(interviews))
	for _, iv := range interviews {
		blocks = append(blocks, availabilityEntity.BusyBlock{
			OwnerID:  participantID,
			Interval: availabilityEntity.NewInterval(iv.StartsAt, iv.EndsAt),
			Source:   availabilityEntity.BusySourceInternal,
			Reason:   iv.Title,
		})
	}
	return blocks, nil
}
