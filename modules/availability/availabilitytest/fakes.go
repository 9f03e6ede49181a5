// Package availabilitytest provides in-memory calendar sources for tests.
package availabilitytest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/availability/service"
)

// InternalSource is a map-backed service.InternalSource.
type InternalSource struct {
	mu           sync.RWMutex
	participants map[string]entity.Participant
	hours        map[string][]entity.WorkingHours
	busy         map[string][]entity.BusyBlock
	failures     map[string]error
	delay        map[string]time.Duration
}

func NewInternalSource() *InternalSource {
	return &InternalSource{
		participants: map[string]entity.Participant{},
		hours:        map[string][]entity.WorkingHours{},
		busy:         map[string][]entity.BusyBlock{},
		failures:     map[string]error{},
		delay:        map[string]time.Duration{},
	}
}

// AddParticipant registers p with optional working hours.
func (s *InternalSource) AddParticipant(p entity.Participant, hours ...entity.WorkingHours) *InternalSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Kind == "" {
		p.Kind = entity.ParticipantKindInterviewer
	}
	s.participants[p.ID] = p
	for i := range hours {
		hours[i].ParticipantID = p.ID
	}
	s.hours[p.ID] = hours
	return s
}

// AddBusy adds internal busy blocks owned by participantID.
func (s *InternalSource) AddBusy(participantID string, intervals ...entity.Interval) *InternalSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, iv := range intervals {
		s.busy[participantID] = append(s.busy[participantID], entity.BusyBlock{
			OwnerID:  participantID,
			Interval: iv,
			Source:   entity.BusySourceInternal,
			Reason:   "interview",
		})
	}
	return s
}

// FailBusy makes GetInternalBusyBlocks fail for participantID.
func (s *InternalSource) FailBusy(participantID string, err error) *InternalSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[participantID] = err
	return s
}

// Delay makes every call for participantID wait d or until ctx is done.
func (s *InternalSource) Delay(participantID string, d time.Duration) *InternalSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay[participantID] = d
	return s
}

func (s *InternalSource) wait(ctx context.Context, participantID string) error {
	s.mu.RLock()
	d := s.delay[participantID]
	s.mu.RUnlock()
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *InternalSource) GetParticipant(ctx context.Context, participantID string) (*entity.Participant, error) {
	if err := s.wait(ctx, participantID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[participantID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrParticipantNotFound, participantID)
	}
	return &p, nil
}

func (s *InternalSource) GetWorkingHours(ctx context.Context, participantID string) ([]entity.WorkingHours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.WorkingHours(nil), s.hours[participantID]...), nil
}

func (s *InternalSource) GetInternalBusyBlocks(ctx context.Context, participantID string, window entity.Interval) ([]entity.BusyBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[participantID]; err != nil {
		return nil, err
	}
	var out []entity.BusyBlock
	for _, b := range s.busy[participantID] {
		if b.Interval.Overlaps(window) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ExternalSource is a configurable service.ExternalSource.
type ExternalSource struct {
	provider string

	mu        sync.RWMutex
	busy      map[string][]entity.Interval
	failures  map[string]string
	delay     map[string]time.Duration
	nearExp   map[string]bool
	refreshes atomic.Int64
	fetches   atomic.Int64
}

func NewExternalSource(provider string) *ExternalSource {
	return &ExternalSource{
		provider: provider,
		busy:     map[string][]entity.Interval{},
		failures: map[string]string{},
		delay:    map[string]time.Duration{},
		nearExp:  map[string]bool{},
	}
}

func (s *ExternalSource) AddBusy(accountID string, intervals ...entity.Interval) *ExternalSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy[accountID] = append(s.busy[accountID], intervals...)
	return s
}

// Fail makes FetchBusy report reason for accountID.
func (s *ExternalSource) Fail(accountID, reason string) *ExternalSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[accountID] = reason
	return s
}

// Delay makes FetchBusy wait d before answering, or fail when ctx ends first.
func (s *ExternalSource) Delay(accountID string, d time.Duration) *ExternalSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay[accountID] = d
	return s
}

func (s *ExternalSource) NearExpiry(accountID string) *ExternalSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nearExp[accountID] = true
	return s
}

func (s *ExternalSource) Refreshes() int64 { return s.refreshes.Load() }
func (s *ExternalSource) Fetches() int64   { return s.fetches.Load() }

func (s *ExternalSource) Provider() string { return s.provider }

func (s *ExternalSource) FetchBusy(ctx context.Context, accountID string, window entity.Interval) entity.ExternalBusyResult {
	s.fetches.Add(1)
	s.mu.RLock()
	d := s.delay[accountID]
	reason, failed := s.failures[accountID]
	intervals := append([]entity.Interval(nil), s.busy[accountID]...)
	s.mu.RUnlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return entity.ExternalBusyFailed(ctx.Err().Error())
		}
	}
	if failed {
		return entity.ExternalBusyFailed(reason)
	}

	blocks := make([]entity.BusyBlock, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.Overlaps(window) {
			continue
		}
		blocks = append(blocks, entity.BusyBlock{
			OwnerID:  accountID,
			Interval: iv,
			Source:   entity.BusySourceExternal,
			Reason:   "Busy (" + s.provider + " calendar)",
		})
	}
	return entity.ExternalBusyOK(blocks)
}

func (s *ExternalSource) IsTokenNearExpiry(ctx context.Context, accountID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nearExp[accountID]
}

func (s *ExternalSource) RefreshCredential(ctx context.Context, accountID string) error {
	s.refreshes.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nearExp[accountID] = false
	return nil
}

// Hours returns a working-hours row for day between two minutes of the day.
func Hours(day time.Weekday, startMin, endMin int) entity.WorkingHours {
	return entity.WorkingHours{DayOfWeek: int(day), StartMinuteOfDay: startMin, EndMinuteOfDay: endMin}
}

// Weekdays returns Mon-Fri rows between startMin and endMin.
func Weekdays(startMin, endMin int) []entity.WorkingHours {
	rows := make([]entity.WorkingHours, 0, 5)
	for d := time.Monday; d <= time.Friday; d++ {
		rows = append(rows, Hours(d, startMin, endMin))
	}
	return rows
}

// At parses an RFC3339 instant and panics on malformed input.
func At(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// Span builds an interval from two RFC3339 instants.
func Span(start, end string) entity.Interval {
	return entity.NewInterval(At(start), At(end))
}
