package service

import (
	"context"
	"fmt"

	"interview-scheduler/core/errors"
	"interview-scheduler/modules/availability/entity"

	"golang.org/x/sync/errgroup"
)

// ResolvePanel resolves every participant concurrently, at most limit at a
// time, and returns the results in input order once all of them finished.
// It fails when the request was cancelled or any participant is UNAVAILABLE;
// the first unavailable participant in input order is reported.
func ResolvePanel(ctx context.Context, r AvailabilityResolver, ids []string, window entity.Interval, limit int) ([]entity.ParticipantAvailability, *errors.AppError) {
	results := make([]entity.ParticipantAvailability, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			results[i] = r.Resolve(gctx, id, window)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewAppError(errors.ErrRequestCancelled, "request cancelled", err)
	}

	for _, res := range results {
		if res.Status.State != entity.ResolutionUnavailable {
			continue
		}
		return nil, errors.NewAppError(
			errors.ErrDependencyUnavailable,
			fmt.Sprintf("availability for participant %s could not be resolved: %s", res.ParticipantID, res.Status.Reason),
			nil,
		).WithDetails(map[string]string{
			"participant_id": res.ParticipantID,
			"reason":         res.Status.Reason,
		})
	}
	return results, nil
}

// DegradedWarnings renders one note per external source that could not be read.
func DegradedWarnings(results []entity.ParticipantAvailability) []string {
	warnings := []string{}
	for _, res := range results {
		name := res.ParticipantID
		if res.Participant != nil {
			name = res.Participant.Name()
		}
		for _, src := range res.FailedSources() {
			warnings = append(warnings, fmt.Sprintf("Note: %s's %s calendar couldn't be checked: %s", name, src.Provider, src.Error))
		}
	}
	return warnings
}

// PartialExternalData reports whether any participant is DEGRADED.
func PartialExternalData(results []entity.ParticipantAvailability) bool {
	for _, res := range results {
		if res.Status.State == entity.ResolutionDegraded {
			return true
		}
	}
	return false
}
