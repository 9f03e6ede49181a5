package service

import (
	"context"
	"time"

	availabilityEntity "interview-scheduler/modules/availability/entity"

	"golang.org/x/oauth2"
)

// BusySlotsResult is the outcome of one provider free/busy call.
// StatusCode carries the provider HTTP status when one was received.
type BusySlotsResult struct {
	BusySlots  []availabilityEntity.Interval
	Success    bool
	Error      string
	StatusCode int
}

// CalendarConnector talks to one external calendar provider.
type CalendarConnector interface {
	Provider() string
	GetValidAccessToken(ctx context.Context, accountID string) (*oauth2.Token, error)
	GetBusySlots(ctx context.Context, accountID string, token *oauth2.Token, from, to time.Time) BusySlotsResult
	IsTokenExpired(ctx context.Context, accountID string) (bool, error)
}
