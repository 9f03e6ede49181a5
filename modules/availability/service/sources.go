package service

import (
	"context"
	"time"

	"interview-scheduler/modules/availability/entity"
)

// InternalSource reads the platform's own calendar store. Every error is a
// hard failure for the participant being resolved.
type InternalSource interface {
	GetParticipant(ctx context.Context, participantID string) (*entity.Participant, error)
	GetWorkingHours(ctx context.Context, participantID string) ([]entity.WorkingHours, error)
	GetInternalBusyBlocks(ctx context.Context, participantID string, window entity.Interval) ([]entity.BusyBlock, error)
}

// ExternalSource reads one third-party calendar provider. FetchBusy never
// returns an error: failures are reported in the result.
type ExternalSource interface {
	Provider() string
	FetchBusy(ctx context.Context, accountID string, window entity.Interval) entity.ExternalBusyResult
	IsTokenNearExpiry(ctx context.Context, accountID string) bool
	RefreshCredential(ctx context.Context, accountID string) error
}

// Clock returns the current instant.
type Clock func() time.Time
