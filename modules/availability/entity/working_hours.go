package entity

import "time"

const MinutesPerDay = 24 * 60

// WorkingHours is one recurring weekly window in the participant's timezone.
// DayOfWeek follows time.Weekday (0 = Sunday).
type WorkingHours struct {
	ParticipantID    string `json:"participant_id" db:"participant_id"`
	DayOfWeek        int    `json:"day_of_week" db:"day_of_week"`
	StartMinuteOfDay int    `json:"start_minute_of_day" db:"start_minute_of_day"`
	EndMinuteOfDay   int    `json:"end_minute_of_day" db:"end_minute_of_day"`
}

func (w WorkingHours) Valid() bool {
	return w.DayOfWeek >= int(time.Sunday) && w.DayOfWeek <= int(time.Saturday) &&
		w.StartMinuteOfDay >= 0 && w.EndMinuteOfDay <= MinutesPerDay &&
		w.StartMinuteOfDay < w.EndMinuteOfDay
}
