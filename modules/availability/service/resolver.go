package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"interview-scheduler/core/config"
	"interview-scheduler/core/logger"
	"interview-scheduler/core/metrics"
	"interview-scheduler/modules/availability/entity"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ErrParticipantNotFound is returned by InternalSource.GetParticipant for unknown ids.
var ErrParticipantNotFound = errors.New("participant not found")

const tracerName = "interview-scheduler/availability"

// AvailabilityResolver resolves one participant's free time over a window.
type AvailabilityResolver interface {
	Resolve(ctx context.Context, participantID string, window entity.Interval) entity.ParticipantAvailability
}

type ResolverConfig struct {
	ExternalTimeout     time.Duration
	InternalTimeout     time.Duration
	DefaultTimezone     string
	DefaultWorkingHours DefaultWorkingHours
}

// ResolverConfigFrom maps the scheduling section of the app config.
func ResolverConfigFrom(cfg config.SchedulingConfig) ResolverConfig {
	return ResolverConfig{
		ExternalTimeout: cfg.ExternalTimeout,
		InternalTimeout: cfg.InternalTimeout,
		DefaultTimezone: cfg.DefaultTimezone,
		DefaultWorkingHours: DefaultWorkingHours{
			Days:        cfg.DefaultWorkdays,
			StartMinute: cfg.DefaultWorkdayStartMin,
			EndMinute:   cfg.DefaultWorkdayEndMin,
		},
	}
}

type Resolver struct {
	internal InternalSource
	external map[string]ExternalSource
	cfg      ResolverConfig
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type ResolverOption func(*Resolver)

func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

func WithTracer(t trace.Tracer) ResolverOption {
	return func(r *Resolver) { r.tracer = t }
}

// NewResolver builds a resolver over one internal source and any number of
// external providers, keyed by Provider().
func NewResolver(internal InternalSource, external []ExternalSource, cfg ResolverConfig, opts ...ResolverOption) *Resolver {
	if cfg.ExternalTimeout <= 0 {
		cfg.ExternalTimeout = 5 * time.Second
	}
	if cfg.InternalTimeout <= 0 {
		cfg.InternalTimeout = 5 * time.Second
	}
	r := &Resolver{
		internal: internal,
		external: make(map[string]ExternalSource, len(external)),
		cfg:      cfg,
		tracer:   otel.Tracer(tracerName),
	}
	for _, src := range external {
		r.external[src.Provider()] = src
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type externalOutcome struct {
	ref    entity.CalendarSourceRef
	result entity.ExternalBusyResult
}

// Resolve never returns an error: hard failures surface as an UNAVAILABLE status.
func (r *Resolver) Resolve(ctx context.Context, participantID string, window entity.Interval) entity.ParticipantAvailability {
	started := time.Now()
	ctx, span := r.tracer.Start(ctx, "availability.Resolve",
		trace.WithAttributes(attribute.String("participant.id", participantID)))
	defer span.End()

	result := r.resolve(ctx, participantID, window)

	span.SetAttributes(attribute.String("resolution.state", string(result.Status.State)))
	if result.Status.State == entity.ResolutionUnavailable {
		span.SetStatus(codes.Error, result.Status.Reason)
	}
	r.metrics.ObserveResolution(string(result.Status.State), time.Since(started))
	return result
}

func (r *Resolver) resolve(ctx context.Context, participantID string, window entity.Interval) entity.ParticipantAvailability {
	out := entity.ParticipantAvailability{
		ParticipantID: participantID,
		Free:          []entity.Interval{},
		Busy:          []entity.Interval{},
	}

	pctx, cancel := context.WithTimeout(ctx, r.cfg.InternalTimeout)
	participant, err := r.internal.GetParticipant(pctx, participantID)
	cancel()
	if err != nil || participant == nil {
		reason := internalFailureReason(ctx, "participant lookup", err)
		if errors.Is(err, ErrParticipantNotFound) || (err == nil && participant == nil) {
			reason = "participant not found"
		}
		r.metrics.ObserveSourceFetch("internal", "error")
		logger.Warn("Resolver:Resolve:GetParticipant:Error", "participant_id", participantID, "error", err)
		out.Status = entity.StatusUnavailable(reason)
		return out
	}
	out.Participant = participant

	loc := r.location(participant)

	var (
		hours        []entity.WorkingHours
		internalBusy []entity.BusyBlock
		outcomes     = make([]externalOutcome, len(participant.CalendarSourceRefs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ictx, cancel := context.WithTimeout(gctx, r.cfg.InternalTimeout)
		defer cancel()
		rows, err := r.internal.GetWorkingHours(ictx, participantID)
		if err != nil {
			return fmt.Errorf("working hours: %w", err)
		}
		hours = rows
		return nil
	})
	g.Go(func() error {
		ictx, cancel := context.WithTimeout(gctx, r.cfg.InternalTimeout)
		defer cancel()
		blocks, err := r.internal.GetInternalBusyBlocks(ictx, participantID, window)
		if err != nil {
			return fmt.Errorf("internal busy blocks: %w", err)
		}
		internalBusy = blocks
		return nil
	})
	for i, ref := range participant.CalendarSourceRefs {
		g.Go(func() error {
			outcomes[i] = externalOutcome{ref: ref, result: r.fetchExternal(gctx, ref, window)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.metrics.ObserveSourceFetch("internal", "error")
		logger.Warn("Resolver:Resolve:Internal:Error", "participant_id", participantID, "error", err)
		out.Status = entity.StatusUnavailable(internalFailureReason(ctx, "internal calendar", err))
		out.SourceReports = []entity.SourceReport{{Source: entity.BusySourceInternal, Error: err.Error()}}
		return out
	}
	r.metrics.ObserveSourceFetch("internal", "ok")

	busy := entity.Intervals(internalBusy)
	reports := []entity.SourceReport{{
		Source:  entity.BusySourceInternal,
		Success: true,
		Blocks:  len(internalBusy),
	}}
	var failures []string
	for _, o := range outcomes {
		reports = append(reports, entity.SourceReport{
			Source:    entity.BusySourceExternal,
			Provider:  o.ref.Provider,
			AccountID: o.ref.AccountID,
			Success:   o.result.Success,
			Error:     o.result.Error,
			Blocks:    len(o.result.Blocks),
		})
		if !o.result.Success {
			failures = append(failures, fmt.Sprintf("%s: %s", o.ref.Provider, o.result.Error))
			continue
		}
		busy = append(busy, entity.Intervals(o.result.Blocks)...)
	}

	if len(hours) == 0 {
		hours = r.cfg.DefaultWorkingHours.Rows(participantID)
	}

	out.Busy = MergeIntervals(busy)
	out.Free = SubtractIntervals(ExpandWorkingHours(hours, loc, window), out.Busy)
	out.SourceReports = reports
	if len(failures) > 0 {
		out.Status = entity.StatusDegraded(strings.Join(failures, "; "))
	} else {
		out.Status = entity.StatusOK()
	}
	return out
}

// fetchExternal runs one provider call under its own deadline. Panics and
// missing adapters become failed results.
func (r *Resolver) fetchExternal(ctx context.Context, ref entity.CalendarSourceRef, window entity.Interval) (res entity.ExternalBusyResult) {
	src, ok := r.external[ref.Provider]
	if !ok {
		r.metrics.ObserveSourceFetch(ref.Provider, "unsupported")
		return entity.ExternalBusyFailed(fmt.Sprintf("no adapter for provider %q", ref.Provider))
	}

	ectx, cancel := context.WithTimeout(ctx, r.cfg.ExternalTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Resolver:FetchExternal:Panic", "provider", ref.Provider, "account_id", ref.AccountID, "panic", p)
			res = entity.ExternalBusyFailed("provider adapter failed")
		}
		outcome := "ok"
		if !res.Success {
			outcome = "error"
		}
		r.metrics.ObserveSourceFetch(ref.Provider, outcome)
	}()

	if src.IsTokenNearExpiry(ectx, ref.AccountID) {
		if err := src.RefreshCredential(ectx, ref.AccountID); err != nil {
			logger.Warn("Resolver:FetchExternal:RefreshCredential:Error",
				"provider", ref.Provider, "account_id", ref.AccountID, "error", err)
		}
	}

	res = src.FetchBusy(ectx, ref.AccountID, window)
	if !res.Success {
		if errors.Is(ectx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			res.Error = fmt.Sprintf("timed out after %s", r.cfg.ExternalTimeout)
		}
		if res.Error == "" {
			res.Error = "unknown error"
		}
		res.Blocks = nil
	}
	return res
}

func (r *Resolver) location(p *entity.Participant) *time.Location {
	if p.Timezone != "" {
		if loc, err := time.LoadLocation(p.Timezone); err == nil {
			return loc
		}
		logger.Warn("Resolver:Location:Invalid", "participant_id", p.ID, "timezone", p.Timezone)
	}
	if loc, err := time.LoadLocation(r.cfg.DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

func internalFailureReason(ctx context.Context, what string, err error) string {
	switch {
	case ctx.Err() != nil:
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return what + " timed out"
	case err != nil:
		return fmt.Sprintf("%s failed: %v", what, err)
	default:
		return what + " failed"
	}
}
