package service

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"interview-scheduler/core/config"
	"interview-scheduler/core/errors"
	"interview-scheduler/core/logger"
	"interview-scheduler/core/metrics"
	availabilityEntity "interview-scheduler/modules/availability/entity"
	availabilityService "interview-scheduler/modules/availability/service"
	"interview-scheduler/modules/suggestion/entity"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "interview-scheduler/suggestion"

// SuggestionEngine computes ranked interview slots for a panel.
type SuggestionEngine interface {
	Suggest(ctx context.Context, query entity.SuggestionQuery) (*entity.SuggestionResult, *errors.AppError)
}

type EngineConfig struct {
	PanelCap                int
	DefaultMaxSuggestions   int
	MaxSuggestionsLimit     int
	MinDurationMins         int
	MaxDurationMins         int
	DefaultBufferBeforeMins int
	DefaultBufferAfterMins  int
	DefaultMinNoticeMins    int
	AlignToHalfHour         bool
	MaxWindowDays           int
	DefaultTimezone         string
}

func EngineConfigFrom(cfg config.SchedulingConfig) EngineConfig {
	return EngineConfig{
		PanelCap:                cfg.PanelCap,
		DefaultMaxSuggestions:   cfg.DefaultMaxSuggestions,
		MaxSuggestionsLimit:     cfg.MaxSuggestionsLimit,
		MinDurationMins:         cfg.MinDurationMins,
		MaxDurationMins:         cfg.MaxDurationMins,
		DefaultBufferBeforeMins: cfg.DefaultBufferBeforeMins,
		DefaultBufferAfterMins:  cfg.DefaultBufferAfterMins,
		DefaultMinNoticeMins:    cfg.DefaultMinNoticeMins,
		AlignToHalfHour:         cfg.AlignToHalfHour,
		MaxWindowDays:           cfg.MaxWindowDays,
		DefaultTimezone:         cfg.DefaultTimezone,
	}
}

// DefaultEngineConfig mirrors the config package defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PanelCap:              5,
		DefaultMaxSuggestions: 10,
		MaxSuggestionsLimit:   50,
		MinDurationMins:       15,
		MaxDurationMins:       480,
		AlignToHalfHour:       true,
		MaxWindowDays:         31,
		DefaultTimezone:       "UTC",
	}
}

type Engine struct {
	resolver availabilityService.AvailabilityResolver
	cfg      EngineConfig
	now      availabilityService.Clock
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

var _ SuggestionEngine = (*Engine)(nil)

type EngineOption func(*Engine)

// WithClock sets the clock used for the minimum-notice cut-off.
func WithClock(now availabilityService.Clock) EngineOption {
	return func(e *Engine) { e.now = now }
}

func WithEngineMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(resolver availabilityService.AvailabilityResolver, cfg EngineConfig, opts ...EngineOption) *Engine {
	if cfg.PanelCap <= 0 {
		cfg.PanelCap = 5
	}
	e := &Engine{
		resolver: resolver,
		cfg:      cfg,
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// plan is a validated query with every default filled in.
type plan struct {
	ids            []string
	duration       int
	window         availabilityEntity.Interval
	maxSuggestions int
	loc            *time.Location
	minNotice      int
	bufferBefore   int
	bufferAfter    int
	prefs          entity.SlotPreferences
}

// run tracks the state of one request. States only move forward.
type run struct {
	state entity.State
}

func (r *run) enter(next entity.State) {
	logger.Debug("SuggestionEngine:Suggest:State", "from", r.state, "to", next)
	r.state = next
}

func (e *Engine) Suggest(ctx context.Context, query entity.SuggestionQuery) (*entity.SuggestionResult, *errors.AppError) {
	started := time.Now()
	ctx, span := e.tracer.Start(ctx, "suggestion.Suggest",
		trace.WithAttributes(attribute.Int("panel.size", len(query.ParticipantIDs))))
	defer span.End()

	p, appErr := e.validate(query)
	if appErr != nil {
		e.metrics.ObserveRequest("suggest", "rejected")
		logger.Info("SuggestionEngine:Suggest:Validate", "error", appErr.Message)
		return nil, appErr
	}

	r := &run{}
	r.enter(entity.StateCollecting)
	// busy blocks just outside the window still make edge slots back-to-back,
	// so the fetch is widened and free time is clipped back to the window
	fetch := p.window
	if reach := backToBackReach(p.prefs); reach > 0 {
		fetch = availabilityEntity.NewInterval(p.window.Start.Add(-reach), p.window.End.Add(reach))
	}
	results, appErr := availabilityService.ResolvePanel(ctx, e.resolver, p.ids, fetch, e.cfg.PanelCap)
	if appErr != nil {
		outcome := "failed"
		if appErr.Code == errors.ErrRequestCancelled {
			outcome = "cancelled"
		} else {
			r.enter(entity.StateFailed)
		}
		e.metrics.ObserveRequest("suggest", outcome)
		logger.Warn("SuggestionEngine:Suggest:Collect:Error", "code", appErr.Code, "error", appErr.Message)
		return nil, appErr
	}

	r.enter(entity.StateReducing)
	free := make([][]availabilityEntity.Interval, len(results))
	busy := make([][]availabilityEntity.Interval, len(results))
	statuses := make(map[string]availabilityEntity.ResolutionStatus, len(results))
	participants := make([]entity.ParticipantSummary, 0, len(results))
	for i, res := range results {
		free[i] = availabilityService.IntersectTwoLists(res.Free, []availabilityEntity.Interval{p.window})
		busy[i] = res.Busy
		statuses[res.ParticipantID] = res.Status
		participants = append(participants, summarize(res))
	}
	common := availabilityService.IntersectIntervalLists(free)

	r.enter(entity.StateSlicing)
	slots := availabilityService.ApplyBuffers(common, p.bufferBefore, p.bufferAfter)
	slots = availabilityService.SliceIntoSlots(slots, p.duration, e.cfg.AlignToHalfHour)
	slots = availabilityService.FilterByMinNotice(slots, p.minNotice, e.now())

	r.enter(entity.StateScoring)
	sc := newScorer(p.prefs, p.loc, p.window, busy)
	suggestions := make([]entity.SlotSuggestion, 0, len(slots))
	for _, slot := range slots {
		score, reasons := sc.score(slot)
		suggestions = append(suggestions, entity.SlotSuggestion{
			Interval:                   slot,
			Score:                      score,
			Reasons:                    reasons,
			PerParticipantAvailability: maps.Clone(statuses),
		})
	}
	rank(suggestions)

	total := len(suggestions)
	if total > p.maxSuggestions {
		suggestions = suggestions[:p.maxSuggestions]
	}

	r.enter(entity.StateDone)
	result := &entity.SuggestionResult{
		Suggestions:         suggestions,
		TotalAvailableSlots: total,
		QueryRange:          p.window,
		Timezone:            p.loc,
		ProcessingTime:      time.Since(started),
		Participants:        participants,
		PartialExternalData: availabilityService.PartialExternalData(results),
		Warnings:            availabilityService.DegradedWarnings(results),
		State:               r.state,
	}

	e.metrics.ObserveRequest("suggest", "ok")
	e.metrics.ObserveSlotsFound(total)
	span.SetAttributes(attribute.Int("slots.total", total))
	logger.Info("SuggestionEngine:Suggest:Success",
		"participants", len(p.ids),
		"total_available_slots", total,
		"returned", len(suggestions),
		"partial_external_data", result.PartialExternalData,
		"duration_ms", result.ProcessingTime.Milliseconds(),
	)
	return result, nil
}

func summarize(res availabilityEntity.ParticipantAvailability) entity.ParticipantSummary {
	s := entity.ParticipantSummary{ID: res.ParticipantID, Name: res.ParticipantID, Status: res.Status}
	if res.Participant != nil {
		s.Name = res.Participant.Name()
		s.Kind = res.Participant.Kind
	}
	return s
}

func invalid(field, format string, args ...any) *errors.AppError {
	msg := fmt.Sprintf(format, args...)
	return errors.NewAppError(errors.ErrInvalidInput, msg, nil).
		WithDetails(map[string]string{"field": field, "message": msg})
}

// validate rejects malformed queries before any resolution work starts.
func (e *Engine) validate(q entity.SuggestionQuery) (*plan, *errors.AppError) {
	if n := len(q.ParticipantIDs); n < 1 || n > e.cfg.PanelCap {
		return nil, invalid("participant_ids", "participant_ids must contain between 1 and %d participants", e.cfg.PanelCap)
	}
	seen := make(map[string]bool, len(q.ParticipantIDs))
	ids := make([]string, 0, len(q.ParticipantIDs))
	for _, raw := range q.ParticipantIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, invalid("participant_ids", "participant_ids must not contain empty ids")
		}
		if seen[id] {
			return nil, invalid("participant_ids", "participant %s is listed more than once", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if q.DurationMins < e.cfg.MinDurationMins || q.DurationMins > e.cfg.MaxDurationMins {
		return nil, invalid("duration_mins", "duration_mins must be between %d and %d", e.cfg.MinDurationMins, e.cfg.MaxDurationMins)
	}

	window := availabilityEntity.NewInterval(q.SearchWindow.Start, q.SearchWindow.End)
	if window.IsEmpty() {
		return nil, invalid("search_window", "search_window end must be after start")
	}
	if e.cfg.MaxWindowDays > 0 && window.Duration() > time.Duration(e.cfg.MaxWindowDays)*24*time.Hour {
		return nil, invalid("search_window", "search_window must not exceed %d days", e.cfg.MaxWindowDays)
	}

	maxSuggestions := q.MaxSuggestions
	if maxSuggestions == 0 {
		maxSuggestions = e.cfg.DefaultMaxSuggestions
	}
	if maxSuggestions < 1 || (e.cfg.MaxSuggestionsLimit > 0 && maxSuggestions > e.cfg.MaxSuggestionsLimit) {
		return nil, invalid("max_suggestions", "max_suggestions must be between 1 and %d", e.cfg.MaxSuggestionsLimit)
	}

	tz := q.Timezone
	if tz == "" {
		tz = e.cfg.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, invalid("timezone", "unknown timezone %q", tz)
	}

	minNotice, appErr := nonNegative("min_notice_mins", q.MinNoticeMins, e.cfg.DefaultMinNoticeMins)
	if appErr != nil {
		return nil, appErr
	}
	before, appErr := nonNegative("buffer_before_mins", q.BufferBeforeMins, e.cfg.DefaultBufferBeforeMins)
	if appErr != nil {
		return nil, appErr
	}
	after, appErr := nonNegative("buffer_after_mins", q.BufferAfterMins, e.cfg.DefaultBufferAfterMins)
	if appErr != nil {
		return nil, appErr
	}

	prefs := entity.DefaultSlotPreferences()
	if q.Preferences != nil {
		prefs = *q.Preferences
		if prefs.PreferredTimeOfDay == "" {
			prefs.PreferredTimeOfDay = entity.TimeOfDayAny
		}
	}
	if !prefs.PreferredTimeOfDay.Valid() {
		return nil, invalid("preferences.preferred_time_of_day", "unknown time of day %q", prefs.PreferredTimeOfDay)
	}
	for _, d := range prefs.PreferredDays {
		if d < 0 || d > 6 {
			return nil, invalid("preferences.preferred_days", "preferred day %d is outside 0-6", d)
		}
	}
	if prefs.MinGapBetweenInterviewsMins < 0 {
		return nil, invalid("preferences.min_gap_between_interviews_mins", "min_gap_between_interviews_mins must not be negative")
	}

	return &plan{
		ids:            ids,
		duration:       q.DurationMins,
		window:         window,
		maxSuggestions: maxSuggestions,
		loc:            loc,
		minNotice:      minNotice,
		bufferBefore:   before,
		bufferAfter:    after,
		prefs:          prefs,
	}, nil
}

func nonNegative(field string, v *int, def int) (int, *errors.AppError) {
	if v == nil {
		return def, nil
	}
	if *v < 0 {
		return 0, invalid(field, "%s must not be negative", field)
	}
	return *v, nil
}
