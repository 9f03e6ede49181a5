package entity

type ParticipantKind string

const (
	ParticipantKindInterviewer ParticipantKind = "INTERVIEWER"
	ParticipantKindCandidate   ParticipantKind = "CANDIDATE"
)

// CalendarSourceRef names a connected external calendar account.
type CalendarSourceRef struct {
	AccountID string `json:"account_id"`
	Provider  string `json:"provider"`
}

type Participant struct {
	ID                 string              `json:"id"`
	Kind               ParticipantKind     `json:"kind"`
	DisplayName        string              `json:"display_name"`
	Timezone           string              `json:"timezone"`
	CalendarSourceRefs []CalendarSourceRef `json:"calendar_source_refs,omitempty"`
}

// Name returns the display name, falling back to the id.
func (p Participant) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}
