package entity

type ResolutionState string

const (
	ResolutionOK          ResolutionState = "OK"
	ResolutionDegraded    ResolutionState = "DEGRADED"
	ResolutionUnavailable ResolutionState = "UNAVAILABLE"
)

// ResolutionStatus is computed once per participant and request, after every
// source has returned or timed out.
type ResolutionStatus struct {
	State  ResolutionState `json:"state"`
	Reason string          `json:"reason,omitempty"`
}

func StatusOK() ResolutionStatus {
	return ResolutionStatus{State: ResolutionOK}
}

func StatusDegraded(reason string) ResolutionStatus {
	return ResolutionStatus{State: ResolutionDegraded, Reason: reason}
}

func StatusUnavailable(reason string) ResolutionStatus {
	return ResolutionStatus{State: ResolutionUnavailable, Reason: reason}
}

// SourceReport records how one calendar source behaved during resolution.
type SourceReport struct {
	Source    BusySource `json:"source"`
	Provider  string     `json:"provider,omitempty"`
	AccountID string     `json:"account_id,omitempty"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	Blocks    int        `json:"blocks"`
}

// ParticipantAvailability is the resolved view of one participant over a window.
// Busy holds the merged busy intervals used to compute Free.
type ParticipantAvailability struct {
	ParticipantID string           `json:"participant_id"`
	Participant   *Participant     `json:"participant,omitempty"`
	Free          []Interval       `json:"free"`
	Busy          []Interval       `json:"busy"`
	Status        ResolutionStatus `json:"status"`
	SourceReports []SourceReport   `json:"source_reports,omitempty"`
}

// FailedSources returns the external sources that could not be read.
func (p ParticipantAvailability) FailedSources() []SourceReport {
	var out []SourceReport
	for _, r := range p.SourceReports {
		if r.Source == BusySourceExternal && !r.Success {
			out = append(out, r)
		}
	}
	return out
}
