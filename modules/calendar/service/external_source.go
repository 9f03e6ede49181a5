package service

import (
	"context"
	"fmt"
	"net/http"

	"interview-scheduler/core/logger"
	availabilityEntity "interview-scheduler/modules/availability/entity"
	availabilityService "interview-scheduler/modules/availability/service"
)

// ExternalCalendarSource adapts a CalendarConnector to the availability
// resolver. It never returns errors or panics to the caller.
type ExternalCalendarSource struct {
	connector CalendarConnector
	creds     *CredentialCache
}

var _ availabilityService.ExternalSource = (*ExternalCalendarSource)(nil)

func NewExternalCalendarSource(connector CalendarConnector, creds *CredentialCache) *ExternalCalendarSource {
	return &ExternalCalendarSource{connector: connector, creds: creds}
}

func (s *ExternalCalendarSource) Provider() string {
	return s.connector.Provider()
}

func (s *ExternalCalendarSource) FetchBusy(ctx context.Context, accountID string, window availabilityEntity.Interval) (result availabilityEntity.ExternalBusyResult) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("ExternalCalendarSource:FetchBusy:Panic", "provider", s.Provider(), "account_id", accountID, "panic", p)
			result = availabilityEntity.ExternalBusyFailed("calendar adapter failed")
		}
	}()

	token, err := s.creds.Get(ctx, accountID)
	if err != nil {
		return availabilityEntity.ExternalBusyFailed("credential unavailable: " + err.Error())
	}

	res := s.connector.GetBusySlots(ctx, accountID, token, window.Start, window.End)
	if !res.Success {
		if res.StatusCode == http.StatusUnauthorized {
			s.creds.Invalidate(accountID)
		}
		return availabilityEntity.ExternalBusyFailed(res.Error)
	}

	// FreeBusy exposes no titles
	reason := fmt.Sprintf("Busy (%s calendar)", s.Provider())
	blocks := make([]availabilityEntity.BusyBlock, 0, len(res.BusySlots))
	for _, slot := range res.BusySlots {
		blocks = append(blocks, availabilityEntity.BusyBlock{
			OwnerID:  accountID,
			Interval: slot,
			Source:   availabilityEntity.BusySourceExternal,
			Reason:   reason,
		})
	}
	return availabilityEntity.ExternalBusyOK(blocks)
}

// IsTokenNearExpiry consults the credential cache, then the connector.
func (s *ExternalCalendarSource) IsTokenNearExpiry(ctx context.Context, accountID string) bool {
	if !s.creds.NearExpiry(accountID) {
		return false
	}
	expired, err := s.connector.IsTokenExpired(ctx, accountID)
	if err != nil {
		return false
	}
	return expired
}

func (s *ExternalCalendarSource) RefreshCredential(ctx context.Context, accountID string) error {
	return s.creds.Refresh(ctx, accountID)
}
