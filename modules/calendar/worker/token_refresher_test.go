package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"interview-scheduler/core/constants"
	"interview-scheduler/modules/calendar/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type listerMock struct{ mock.Mock }

func (m *listerMock) GetConnectionsExpiringBefore(ctx context.Context, provider string, before time.Time) ([]entity.CalendarConnection, error) {
	args := m.Called(ctx, provider, before)
	conns, _ := args.Get(0).([]entity.CalendarConnection)
	return conns, args.Error(1)
}

type refresherMock struct{ mock.Mock }

func (m *refresherMock) Provider() string { return constants.ProviderGoogle }

func (m *refresherMock) Refresh(ctx context.Context, accountID string) (*oauth2.Token, error) {
	args := m.Called(ctx, accountID)
	tok, _ := args.Get(0).(*oauth2.Token)
	return tok, args.Error(1)
}

func TestTokenRefresher_Run(t *testing.T) {
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	ok := entity.CalendarConnection{ID: uuid.New(), ParticipantID: "alice"}
	bad := entity.CalendarConnection{ID: uuid.New(), ParticipantID: "bob"}

	lister := &listerMock{}
	lister.On("GetConnectionsExpiringBefore", mock.Anything, constants.ProviderGoogle, now.Add(10*time.Minute)).
		Return([]entity.CalendarConnection{ok, bad}, nil).Once()

	refresher := &refresherMock{}
	refresher.On("Refresh", mock.Anything, ok.ID.String()).Return(&oauth2.Token{AccessToken: "new"}, nil).Once()
	refresher.On("Refresh", mock.Anything, bad.ID.String()).Return(nil, errors.New("invalid_grant")).Once()

	r := NewTokenRefresher(lister, refresher, 10*time.Minute)
	r.now = func() time.Time { return now }

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, RefreshStats{Checked: 2, Refreshed: 1, Failed: 1}, stats)
	lister.AssertExpectations(t)
	refresher.AssertExpectations(t)
}

func TestTokenRefresher_ListingError(t *testing.T) {
	lister := &listerMock{}
	lister.On("GetConnectionsExpiringBefore", mock.Anything, constants.ProviderGoogle, mock.Anything).
		Return(nil, errors.New("db down"))
	refresher := &refresherMock{}

	r := NewTokenRefresher(lister, refresher, time.Minute)
	err := r.ProcessTask(context.Background(), NewRefreshTask())
	require.ErrorContains(t, err, "db down")
	refresher.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestTokenRefresher_StopsOnCancel(t *testing.T) {
	conns := []entity.CalendarConnection{{ID: uuid.New()}, {ID: uuid.New()}}
	lister := &listerMock{}
	lister.On("GetConnectionsExpiringBefore", mock.Anything, mock.Anything, mock.Anything).Return(conns, nil)

	ctx, cancel := context.WithCancel(context.Background())
	refresher := &refresherMock{}
	refresher.On("Refresh", mock.Anything, conns[0].ID.String()).
		Run(func(mock.Arguments) { cancel() }).
		Return(&oauth2.Token{}, nil).Once()

	r := NewTokenRefresher(lister, refresher, time.Minute)
	stats, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, RefreshStats{Checked: 2, Refreshed: 1}, stats)
	refresher.AssertExpectations(t)
}

func TestNewRefreshTask(t *testing.T) {
	require.Equal(t, constants.TaskRefreshExpiringTokens, NewRefreshTask().Type())
}
