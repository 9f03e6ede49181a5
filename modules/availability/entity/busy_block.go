package entity

type BusySource string

const (
	BusySourceInternal BusySource = "INTERNAL"
	BusySourceExternal BusySource = "EXTERNAL"
)

type BusyBlock struct {
	OwnerID  string     `json:"owner_id"`
	Interval Interval   `json:"interval"`
	Source   BusySource `json:"source"`
	Reason   string     `json:"reason,omitempty"`
}

// ExternalBusyResult is the outcome of one external calendar fetch.
// Error is set only when Success is false.
type ExternalBusyResult struct {
	Blocks  []BusyBlock
	Success bool
	Error   string
}

func ExternalBusyOK(blocks []BusyBlock) ExternalBusyResult {
	return ExternalBusyResult{Blocks: blocks, Success: true}
}

func ExternalBusyFailed(reason string) ExternalBusyResult {
	return ExternalBusyResult{Success: false, Error: reason}
}

// Intervals returns the intervals of blocks in input order.
func Intervals(blocks []BusyBlock) []Interval {
	out := make([]Interval, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Interval)
	}
	return out
}
