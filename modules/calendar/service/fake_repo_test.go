package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	availabilityEntity "interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/calendar/entity"
	"interview-scheduler/modules/calendar/repository"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu           sync.Mutex
	participants map[string]entity.ParticipantRecord
	hours        map[string][]availabilityEntity.WorkingHours
	interviews   map[string][]entity.InterviewBlock
	conns        map[uuid.UUID]entity.CalendarConnection
	updates      int
	deactivated  []uuid.UUID
}

var _ repository.CalendarRepository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		participants: map[string]entity.ParticipantRecord{},
		hours:        map[string][]availabilityEntity.WorkingHours{},
		interviews:   map[string][]entity.InterviewBlock{},
		conns:        map[uuid.UUID]entity.CalendarConnection{},
	}
}

func (r *fakeRepo) GetParticipant(_ context.Context, id string) (*entity.ParticipantRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, fmt.Errorf("participant %s: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (r *fakeRepo) GetWorkingHours(_ context.Context, id string) ([]availabilityEntity.WorkingHours, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hours[id], nil
}

func (r *fakeRepo) GetBusyInterviews(_ context.Context, id string, from, to time.Time) ([]entity.InterviewBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.InterviewBlock
	for _, b := range r.interviews[id] {
		if b.StartsAt.Before(to) && b.EndsAt.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateConnection(_ context.Context, conn *entity.CalendarConnection) (*entity.CalendarConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	r.conns[conn.ID] = *conn
	return conn, nil
}

func (r *fakeRepo) GetConnectionByID(_ context.Context, id uuid.UUID) (*entity.CalendarConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return nil, fmt.Errorf("connection %s: %w", id, repository.ErrNotFound)
	}
	return &c, nil
}

func (r *fakeRepo) GetConnectionsByParticipant(_ context.Context, id string) ([]entity.CalendarConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.CalendarConnection
	for _, c := range r.conns {
		if c.ParticipantID == id && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetConnectionsExpiringBefore(_ context.Context, provider string, before time.Time) ([]entity.CalendarConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.CalendarConnection
	for _, c := range r.conns {
		if c.Provider == provider && c.IsActive && c.RefreshToken != "" && c.TokenExpiresAt.Before(before) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateConnectionToken(_ context.Context, conn *entity.CalendarConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.conns[conn.ID] = *conn
	return nil
}

func (r *fakeRepo) DeactivateConnection(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.conns[id]
	c.IsActive = false
	r.conns[id] = c
	r.deactivated = append(r.deactivated, id)
	return nil
}
