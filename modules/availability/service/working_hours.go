package service

import (
	"time"

	"interview-scheduler/core/logger"
	"interview-scheduler/modules/availability/entity"
)

// DefaultWorkingHours is applied to participants that have no stored rows.
type DefaultWorkingHours struct {
	Days        []int
	StartMinute int
	EndMinute   int
}

// Rows materializes the defaults for participantID.
func (d DefaultWorkingHours) Rows(participantID string) []entity.WorkingHours {
	rows := make([]entity.WorkingHours, 0, len(d.Days))
	for _, day := range d.Days {
		rows = append(rows, entity.WorkingHours{
			ParticipantID:    participantID,
			DayOfWeek:        day,
			StartMinuteOfDay: d.StartMinute,
			EndMinuteOfDay:   d.EndMinute,
		})
	}
	return rows
}

// ExpandWorkingHours turns weekly rows into absolute intervals clipped to window.
// Days are walked in loc so DST transitions shift the absolute offsets.
// Rows of the same weekday are merged; invalid rows are skipped.
func ExpandWorkingHours(rows []entity.WorkingHours, loc *time.Location, window entity.Interval) []entity.Interval {
	if loc == nil {
		loc = time.UTC
	}
	if window.IsEmpty() {
		return []entity.Interval{}
	}

	byDay := make(map[time.Weekday][]entity.WorkingHours, 7)
	for _, r := range rows {
		if !r.Valid() {
			logger.Warn("Availability:ExpandWorkingHours:InvalidRow",
				"participant_id", r.ParticipantID,
				"day_of_week", r.DayOfWeek,
				"start", r.StartMinuteOfDay,
				"end", r.EndMinuteOfDay,
			)
			continue
		}
		byDay[time.Weekday(r.DayOfWeek)] = append(byDay[time.Weekday(r.DayOfWeek)], r)
	}
	if len(byDay) == 0 {
		return []entity.Interval{}
	}

	start := window.Start.In(loc)
	end := window.End.In(loc)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	// a day may start before the window; its rows are clipped below
	day = day.AddDate(0, 0, -1)

	var out []entity.Interval
	for !day.After(end) {
		for _, r := range byDay[day.Weekday()] {
			from := atMinute(day, r.StartMinuteOfDay)
			to := atMinute(day, r.EndMinuteOfDay)
			iv := entity.Interval{
				Start: maxTime(from, window.Start).UTC(),
				End:   minTime(to, window.End).UTC(),
			}
			if !iv.IsEmpty() {
				out = append(out, iv)
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	return MergeIntervals(out)
}

// atMinute returns the wall-clock instant minute minutes after midnight of day.
// 1440 maps to the next midnight.
func atMinute(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, day.Location())
}
