package entity

import (
	"time"

	"github.com/google/uuid"
)

// InterviewStatusCancelled rows never block a calendar.
const InterviewStatusCancelled = "CANCELLED"

type ParticipantRecord struct {
	ID          string    `db:"id"`
	Kind        string    `db:"kind"`
	DisplayName string    `db:"display_name"`
	Timezone    string    `db:"timezone"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// InterviewBlock is a scheduled interview a participant takes part in.
type InterviewBlock struct {
	InterviewID uuid.UUID `db:"interview_id"`
	Title       string    `db:"title"`
	StartsAt    time.Time `db:"starts_at"`
	EndsAt      time.Time `db:"ends_at"`
}
