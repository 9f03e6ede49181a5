package service_test

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	apperrors "interview-scheduler/core/errors"
	"interview-scheduler/modules/availability/availabilitytest"
	availabilityEntity "interview-scheduler/modules/availability/entity"
	availabilityService "interview-scheduler/modules/availability/service"
	"interview-scheduler/modules/suggestion/entity"
	"interview-scheduler/modules/suggestion/service"

	"github.com/stretchr/testify/require"
)

var morning = availabilitytest.Span("2025-03-03T09:00:00Z", "2025-03-03T12:00:00Z")

type fixture struct {
	internal *availabilitytest.InternalSource
	google   *availabilitytest.ExternalSource
	now      time.Time
	cfg      service.EngineConfig
}

// newFixture registers alice and bob, both working 09:00-17:00 UTC on weekdays,
// with bob busy 10:00-11:00 on Monday.
func newFixture() *fixture {
	f := &fixture{
		internal: availabilitytest.NewInternalSource(),
		google:   availabilitytest.NewExternalSource("google"),
		now:      availabilitytest.At("2025-03-03T08:00:00Z"),
		cfg:      service.DefaultEngineConfig(),
	}
	f.internal.
		AddParticipant(availabilityEntity.Participant{ID: "alice", DisplayName: "Alice", Timezone: "UTC"},
			availabilitytest.Weekdays(9*60, 17*60)...).
		AddParticipant(availabilityEntity.Participant{
			ID:                 "bob",
			DisplayName:        "Bob",
			Timezone:           "UTC",
			CalendarSourceRefs: []availabilityEntity.CalendarSourceRef{{AccountID: "bob@google", Provider: "google"}},
		}, availabilitytest.Weekdays(9*60, 17*60)...).
		AddBusy("bob", availabilitytest.Span("2025-03-03T10:00:00Z", "2025-03-03T11:00:00Z"))
	return f
}

func (f *fixture) engine() *service.Engine {
	resolver := availabilityService.NewResolver(f.internal, []availabilityService.ExternalSource{f.google}, availabilityService.ResolverConfig{
		ExternalTimeout: 200 * time.Millisecond,
		InternalTimeout: 200 * time.Millisecond,
		DefaultTimezone: "UTC",
	})
	return service.NewEngine(resolver, f.cfg, service.WithClock(func() time.Time { return f.now }))
}

func query(ids ...string) entity.SuggestionQuery {
	return entity.SuggestionQuery{
		ParticipantIDs: ids,
		DurationMins:   30,
		SearchWindow:   morning,
	}
}

func starts(res *entity.SuggestionResult) []string {
	out := make([]string, 0, len(res.Suggestions))
	for _, s := range res.Suggestions {
		out = append(out, s.Interval.Start.Format("15:04"))
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestSuggest_ScenarioA_CommonFreeSlots(t *testing.T) {
	f := newFixture()

	res, appErr := f.engine().Suggest(context.Background(), query("alice", "bob"))
	require.Nil(t, appErr)
	require.Equal(t, entity.StateDone, res.State)
	require.Equal(t, 4, res.TotalAvailableSlots)
	require.Equal(t, []string{"09:00", "09:30", "11:00", "11:30"}, starts(res))
	require.Equal(t, morning, res.QueryRange)
	require.False(t, res.PartialExternalData)
	require.Empty(t, res.Warnings)

	for _, s := range res.Suggestions {
		require.Equal(t, 30*time.Minute, s.Interval.Duration())
		require.Equal(t, availabilityEntity.ResolutionOK, s.PerParticipantAvailability["alice"].State)
		require.Equal(t, availabilityEntity.ResolutionOK, s.PerParticipantAvailability["bob"].State)
	}
	require.Equal(t, 105.0, res.Suggestions[0].Score)
	require.Equal(t, 104.17, res.Suggestions[1].Score)
}

func TestSuggest_ScenarioB_DegradedExternalSource(t *testing.T) {
	f := newFixture()
	f.google.Fail("bob@google", "api down")

	res, appErr := f.engine().Suggest(context.Background(), query("alice", "bob"))
	require.Nil(t, appErr)
	require.Equal(t, []string{"09:00", "09:30", "11:00", "11:30"}, starts(res))
	require.True(t, res.PartialExternalData)
	require.Equal(t, []string{"Note: Bob's google calendar couldn't be checked: api down"}, res.Warnings)

	bob := res.Suggestions[0].PerParticipantAvailability["bob"]
	require.Equal(t, availabilityEntity.ResolutionDegraded, bob.State)
	require.Equal(t, "google: api down", bob.Reason)
	require.Equal(t, availabilityEntity.ResolutionDegraded, res.Participants[1].Status.State)
}

func TestSuggest_ScenarioC_MinNotice(t *testing.T) {
	f := newFixture()
	f.now = availabilitytest.At("2025-03-03T09:15:00Z")
	q := query("alice", "bob")
	q.MinNoticeMins = intPtr(60)

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	require.Equal(t, []string{"11:00", "11:30"}, starts(res))
	require.Equal(t, 2, res.TotalAvailableSlots)
}

func TestSuggest_ScenarioD_TimeOfDayMismatchKeepsChronologicalOrder(t *testing.T) {
	f := newFixture()
	q := query("alice", "bob")
	q.Preferences = &entity.SlotPreferences{PreferredTimeOfDay: entity.TimeOfDayAfternoon}

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	require.Equal(t, []string{"09:00", "09:30", "11:00", "11:30"}, starts(res))
	for _, s := range res.Suggestions {
		require.Equal(t, []string{"Outside preferred time of day (afternoon)"}, s.Reasons)
	}
	require.Equal(t, 95.0, res.Suggestions[0].Score)
}

func TestSuggest_ScenarioE_NoFreeTime(t *testing.T) {
	f := newFixture()
	f.internal.
		AddParticipant(availabilityEntity.Participant{ID: "carol", Timezone: "UTC"}, availabilitytest.Weekdays(9*60, 17*60)...).
		AddBusy("carol", morning)

	res, appErr := f.engine().Suggest(context.Background(), query("alice", "carol"))
	require.Nil(t, appErr)
	require.Equal(t, 0, res.TotalAvailableSlots)
	require.NotNil(t, res.Suggestions)
	require.Empty(t, res.Suggestions)
	require.Equal(t, availabilityEntity.ResolutionOK, res.Participants[1].Status.State)
}

func TestSuggest_MatchingPreferences(t *testing.T) {
	f := newFixture()
	q := query("alice", "bob")
	q.Preferences = &entity.SlotPreferences{
		PreferredTimeOfDay: entity.TimeOfDayMorning,
		PreferredDays:      []int{int(time.Monday)},
	}

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	require.Equal(t, []string{"Matches preferred time of day", "Falls on a preferred day"}, res.Suggestions[0].Reasons)
	require.Equal(t, 120.0, res.Suggestions[0].Score)
}

func TestSuggest_AvoidBackToBack(t *testing.T) {
	f := newFixture()
	q := query("alice", "bob")
	q.Preferences = &entity.SlotPreferences{AvoidBackToBack: true}

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	// 09:30 ends and 11:00 starts against bob's 10:00-11:00 interview
	require.Equal(t, []string{"09:00", "11:30", "09:30", "11:00"}, starts(res))
	require.Equal(t, []string{"Back-to-back with an existing commitment"}, res.Suggestions[2].Reasons)
	require.Empty(t, res.Suggestions[0].Reasons)
}

func TestSuggest_AvoidBackToBackWithGap(t *testing.T) {
	f := newFixture()
	q := query("alice", "bob")
	q.Preferences = &entity.SlotPreferences{AvoidBackToBack: true, MinGapBetweenInterviewsMins: 30}

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	penalized := 0
	for _, s := range res.Suggestions {
		if len(s.Reasons) > 0 {
			penalized++
		}
	}
	require.Equal(t, 4, penalized)
	require.Equal(t, []string{"09:00", "09:30", "11:00", "11:30"}, starts(res))
}

func TestSuggest_AvoidBackToBack_BusyEndsAtWindowStart(t *testing.T) {
	f := newFixture()
	f.internal.AddBusy("alice", availabilitytest.Span("2025-03-03T08:00:00Z", "2025-03-03T09:00:00Z"))
	q := query("alice")
	q.Preferences = &entity.SlotPreferences{AvoidBackToBack: true}

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	require.Equal(t, []string{"09:30", "10:00", "10:30", "11:00", "11:30", "09:00"}, starts(res))
	require.Equal(t, 90.0, res.Suggestions[5].Score)
	require.Equal(t, []string{"Back-to-back with an existing commitment"}, res.Suggestions[5].Reasons)
	for _, s := range res.Suggestions[:5] {
		require.Empty(t, s.Reasons)
	}
}

func TestSuggest_AvoidBackToBack_GapReachesOutsideWindow(t *testing.T) {
	f := newFixture()
	f.internal.
		AddBusy("alice", availabilitytest.Span("2025-03-03T08:00:00Z", "2025-03-03T08:45:00Z")).
		AddBusy("alice", availabilitytest.Span("2025-03-03T12:15:00Z", "2025-03-03T13:00:00Z"))
	q := query("alice")
	q.Preferences = &entity.SlotPreferences{AvoidBackToBack: true, MinGapBetweenInterviewsMins: 15}

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	// both edge slots sit exactly one gap away from a block outside the window
	require.Equal(t, []string{"09:30", "10:00", "10:30", "11:00", "09:00", "11:30"}, starts(res))
	require.Equal(t, 90.0, res.Suggestions[4].Score)
	require.Equal(t, 85.83, res.Suggestions[5].Score)
}

func TestSuggest_WidenedFetchKeepsSlotsInsideWindow(t *testing.T) {
	f := newFixture()
	q := query("alice")
	q.Preferences = &entity.SlotPreferences{AvoidBackToBack: true, MinGapBetweenInterviewsMins: 60}

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	require.Equal(t, 6, res.TotalAvailableSlots)
	require.Equal(t, morning, res.QueryRange)
	for _, s := range res.Suggestions {
		require.False(t, s.Interval.Start.Before(morning.Start))
		require.False(t, s.Interval.End.After(morning.End))
		require.Empty(t, s.Reasons)
	}
}

func TestSuggest_StatusMapsAreIndependent(t *testing.T) {
	f := newFixture()

	res, appErr := f.engine().Suggest(context.Background(), query("alice", "bob"))
	require.Nil(t, appErr)
	require.GreaterOrEqual(t, len(res.Suggestions), 2)

	res.Suggestions[0].PerParticipantAvailability["alice"] = availabilityEntity.StatusUnavailable("changed")
	require.Equal(t, availabilityEntity.ResolutionOK, res.Suggestions[1].PerParticipantAvailability["alice"].State)
}

func TestSuggest_BuffersShrinkCommonTime(t *testing.T) {
	f := newFixture()
	q := query("alice")
	q.BufferBeforeMins = intPtr(15)
	q.BufferAfterMins = intPtr(15)

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	require.Equal(t, []string{"09:30", "10:00", "10:30", "11:00"}, starts(res))
}

func TestSuggest_CapsToMaxSuggestions(t *testing.T) {
	f := newFixture()
	q := query("alice")
	q.MaxSuggestions = 2

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	require.Len(t, res.Suggestions, 2)
	require.Equal(t, 6, res.TotalAvailableSlots)
}

func TestSuggest_FormatsInQueryTimezone(t *testing.T) {
	f := newFixture()
	q := query("alice")
	q.Timezone = "America/New_York"
	q.Preferences = &entity.SlotPreferences{PreferredTimeOfDay: entity.TimeOfDayMorning}

	res, appErr := f.engine().Suggest(context.Background(), q)
	require.Nil(t, appErr)
	require.Equal(t, "America/New_York", res.Timezone.String())
	// 09:00Z is 04:00 in New York
	require.Equal(t, []string{"Matches preferred time of day"}, res.Suggestions[0].Reasons)
}

func TestSuggest_UnavailableParticipantFails(t *testing.T) {
	f := newFixture()
	f.internal.FailBusy("bob", errors.New("connection refused"))

	res, appErr := f.engine().Suggest(context.Background(), query("alice", "bob"))
	require.Nil(t, res)
	require.NotNil(t, appErr)
	require.Equal(t, apperrors.ErrDependencyUnavailable, appErr.Code)
	require.Contains(t, appErr.Message, "bob")
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	require.Equal(t, "bob", details["participant_id"])
	require.Contains(t, details["reason"], "connection refused")
}

func TestSuggest_UnknownParticipantFails(t *testing.T) {
	f := newFixture()

	_, appErr := f.engine().Suggest(context.Background(), query("ghost", "alice", "nobody"))
	require.NotNil(t, appErr)
	require.Equal(t, apperrors.ErrDependencyUnavailable, appErr.Code)
	require.Equal(t, "ghost", appErr.Details.(map[string]string)["participant_id"])
	require.Equal(t, "participant not found", appErr.Details.(map[string]string)["reason"])
}

func TestSuggest_CancelledRequest(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, appErr := f.engine().Suggest(ctx, query("alice", "bob"))
	require.NotNil(t, appErr)
	require.Equal(t, apperrors.ErrRequestCancelled, appErr.Code)
}

func TestSuggest_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(q *entity.SuggestionQuery)
		field string
	}{
		{"empty panel", func(q *entity.SuggestionQuery) { q.ParticipantIDs = nil }, "participant_ids"},
		{"panel over cap", func(q *entity.SuggestionQuery) { q.ParticipantIDs = []string{"a", "b", "c", "d", "e", "f"} }, "participant_ids"},
		{"duplicate ids", func(q *entity.SuggestionQuery) { q.ParticipantIDs = []string{"alice", " alice"} }, "participant_ids"},
		{"blank id", func(q *entity.SuggestionQuery) { q.ParticipantIDs = []string{"alice", " "} }, "participant_ids"},
		{"duration too short", func(q *entity.SuggestionQuery) { q.DurationMins = 10 }, "duration_mins"},
		{"duration too long", func(q *entity.SuggestionQuery) { q.DurationMins = 481 }, "duration_mins"},
		{"inverted window", func(q *entity.SuggestionQuery) {
			q.SearchWindow = availabilityEntity.Interval{Start: morning.End, End: morning.Start}
		}, "search_window"},
		{"window too long", func(q *entity.SuggestionQuery) {
			q.SearchWindow = availabilityEntity.Interval{Start: morning.Start, End: morning.Start.Add(32 * 24 * time.Hour)}
		}, "search_window"},
		{"max suggestions over limit", func(q *entity.SuggestionQuery) { q.MaxSuggestions = 51 }, "max_suggestions"},
		{"negative max suggestions", func(q *entity.SuggestionQuery) { q.MaxSuggestions = -1 }, "max_suggestions"},
		{"unknown timezone", func(q *entity.SuggestionQuery) { q.Timezone = "Mars/Olympus" }, "timezone"},
		{"negative notice", func(q *entity.SuggestionQuery) { q.MinNoticeMins = intPtr(-5) }, "min_notice_mins"},
		{"negative buffer", func(q *entity.SuggestionQuery) { q.BufferAfterMins = intPtr(-1) }, "buffer_after_mins"},
		{"bad time of day", func(q *entity.SuggestionQuery) {
			q.Preferences = &entity.SlotPreferences{PreferredTimeOfDay: "NIGHT"}
		}, "preferences.preferred_time_of_day"},
		{"bad preferred day", func(q *entity.SuggestionQuery) {
			q.Preferences = &entity.SlotPreferences{PreferredDays: []int{7}}
		}, "preferences.preferred_days"},
		{"negative gap", func(q *entity.SuggestionQuery) {
			q.Preferences = &entity.SlotPreferences{MinGapBetweenInterviewsMins: -1}
		}, "preferences.min_gap_between_interviews_mins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			q := query("alice", "bob")
			tt.edit(&q)

			res, appErr := f.engine().Suggest(context.Background(), q)
			require.Nil(t, res)
			require.NotNil(t, appErr)
			require.Equal(t, apperrors.ErrInvalidInput, appErr.Code)
			require.Equal(t, tt.field, appErr.Details.(map[string]string)["field"])
			require.Zero(t, f.google.Fetches())
		})
	}
}
