package worker

import (
	"context"
	"fmt"
	"time"

	"interview-scheduler/core/constants"
	"interview-scheduler/core/logger"
	"interview-scheduler/modules/calendar/entity"

	"github.com/hibiken/asynq"
	"golang.org/x/oauth2"
)

// ConnectionLister lists connections whose tokens expire soon.
type ConnectionLister interface {
	GetConnectionsExpiringBefore(ctx context.Context, provider string, before time.Time) ([]entity.CalendarConnection, error)
}

// Refresher forces a token refresh for one account.
type Refresher interface {
	Provider() string
	Refresh(ctx context.Context, accountID string) (*oauth2.Token, error)
}

// TokenRefresher refreshes every connection expiring within the skew so
// request-path refreshes stay rare.
type TokenRefresher struct {
	repo      ConnectionLister
	refresher Refresher
	skew      time.Duration
	now       func() time.Time
}

func NewTokenRefresher(repo ConnectionLister, refresher Refresher, skew time.Duration) *TokenRefresher {
	return &TokenRefresher{repo: repo, refresher: refresher, skew: skew, now: time.Now}
}

// NewRefreshTask builds the periodic task payload.
func NewRefreshTask() *asynq.Task {
	return asynq.NewTask(constants.TaskRefreshExpiringTokens, nil)
}

// RefreshStats summarizes one run.
type RefreshStats struct {
	Checked   int
	Refreshed int
	Failed    int
}

// Run refreshes all expiring connections. Individual failures are logged and
// counted; only a failed listing is returned as an error.
func (r *TokenRefresher) Run(ctx context.Context) (RefreshStats, error) {
	var stats RefreshStats
	before := r.now().Add(r.skew)

	conns, err := r.repo.GetConnectionsExpiringBefore(ctx, r.refresher.Provider(), before)
	if err != nil {
		return stats, fmt.Errorf("list expiring connections: %w", err)
	}
	stats.Checked = len(conns)

	for _, conn := range conns {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if _, err := r.refresher.Refresh(ctx, conn.ID.String()); err != nil {
			stats.Failed++
			logger.Warn("TokenRefresher:Run:Refresh:Error", "account_id", conn.ID, "participant_id", conn.ParticipantID, "error", err)
			continue
		}
		stats.Refreshed++
	}
	return stats, nil
}

// ProcessTask implements asynq.Handler.
func (r *TokenRefresher) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	stats, err := r.Run(ctx)
	if err != nil {
		logger.Error("TokenRefresher:ProcessTask:Error", "error", err)
		return err
	}
	logger.Info("TokenRefresher:ProcessTask:Done",
		"checked", stats.Checked,
		"refreshed", stats.Refreshed,
		"failed", stats.Failed,
	)
	return nil
}
