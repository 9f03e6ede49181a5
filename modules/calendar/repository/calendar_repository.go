package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"interview-scheduler/core/database"
	availabilityEntity "interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/calendar/entity"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a participant or connection row does not exist.
var ErrNotFound = errors.New("not found")

type CalendarRepository interface {
	// Internal calendar
	GetParticipant(ctx context.Context, participantID string) (*entity.ParticipantRecord, error)
	GetWorkingHours(ctx context.Context, participantID string) ([]availabilityEntity.WorkingHours, error)
	GetBusyInterviews(ctx context.Context, participantID string, from, to time.Time) ([]entity.InterviewBlock, error)

	// Calendar connections
	CreateConnection(ctx context.Context, conn *entity.CalendarConnection) (*entity.CalendarConnection, error)
	GetConnectionByID(ctx context.Context, id uuid.UUID) (*entity.CalendarConnection, error)
	GetConnectionsByParticipant(ctx context.Context, participantID string) ([]entity.CalendarConnection, error)
	GetConnectionsExpiringBefore(ctx context.Context, provider string, before time.Time) ([]entity.CalendarConnection, error)
	UpdateConnectionToken(ctx context.Context, conn *entity.CalendarConnection) error
	DeactivateConnection(ctx context.Context, id uuid.UUID) error
}

type calendarRepository struct {
	db database.IDatabase
}

func NewCalendarRepository(db database.IDatabase) CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) GetParticipant(ctx context.Context, participantID string) (*entity.ParticipantRecord, error) {
	query := `
		SELECT id, kind, display_name, timezone, created_at, updated_at
		FROM participants
		WHERE id = $1
	`
	var p entity.ParticipantRecord
	if err := r.db.GetContext(ctx, &p, query, participantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("participant %s: %w", participantID, ErrNotFound)
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

func (r *calendarRepository) GetWorkingHours(ctx context.Context, participantID string) ([]availabilityEntity.WorkingHours, error) {
	query := `
		SELECT participant_id, day_of_week, start_minute_of_day, end_minute_of_day
		FROM working_hours
		WHERE participant_id = $1
		ORDER BY day_of_week, start_minute_of_day
	`
	rows := []availabilityEntity.WorkingHours{}
	if err := r.db.SelectContext(ctx, &rows, query, participantID); err != nil {
		return nil, fmt.Errorf("get working hours: %w", err)
	}
	return rows, nil
}

// GetBusyInterviews returns non-cancelled interviews of participantID overlapping [from, to).
func (r *calendarRepository) GetBusyInterviews(ctx context.Context, participantID string, from, to time.Time) ([]entity.InterviewBlock, error) {
	query := `
		SELECT si.id AS interview_id, si.title, si.starts_at, si.ends_at
		FROM scheduled_interviews si
		JOIN interview_participants ip ON ip.interview_id = si.id
		WHERE ip.participant_id = $1
		AND si.status <> $2
		AND si.starts_at < $4
		AND si.ends_at > $3
		ORDER BY si.starts_at
	`
	blocks := []entity.InterviewBlock{}
	if err := r.db.SelectContext(ctx, &blocks, query, participantID, entity.InterviewStatusCancelled, from, to); err != nil {
		return nil, fmt.Errorf("get busy interviews: %w", err)
	}
	return blocks, nil
}

// CreateConnection inserts a connection, generating its id when unset.
func (r *calendarRepository) CreateConnection(ctx context.Context, conn *entity.CalendarConnection) (*entity.CalendarConnection, error) {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	query := `
		INSERT INTO calendar_connections (id, participant_id, provider, access_token, refresh_token, token_expires_at, calendar_email, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		conn.ID, conn.ParticipantID, conn.Provider, conn.AccessToken, conn.RefreshToken,
		conn.TokenExpiresAt, conn.CalendarEmail, conn.IsActive,
	).Scan(&conn.CreatedAt, &conn.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}
	return conn, nil
}

func (r *calendarRepository) GetConnectionByID(ctx context.Context, id uuid.UUID) (*entity.CalendarConnection, error) {
	query := `
		SELECT id, participant_id, provider, access_token, refresh_token, token_expires_at, calendar_email, is_active, created_at, updated_at
		FROM calendar_connections
		WHERE id = $1
	`
	var conn entity.CalendarConnection
	if err := r.db.GetContext(ctx, &conn, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("connection %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return &conn, nil
}

// GetConnectionsByParticipant returns the active connections of a participant.
func (r *calendarRepository) GetConnectionsByParticipant(ctx context.Context, participantID string) ([]entity.CalendarConnection, error) {
	query := `
		SELECT id, participant_id, provider, access_token, refresh_token, token_expires_at, calendar_email, is_active, created_at, updated_at
		FROM calendar_connections
		WHERE participant_id = $1 AND is_active = true
		ORDER BY created_at
	`
	conns := []entity.CalendarConnection{}
	if err := r.db.SelectContext(ctx, &conns, query, participantID); err != nil {
		return nil, fmt.Errorf("get connections: %w", err)
	}
	return conns, nil
}

// GetConnectionsExpiringBefore lists active connections of provider whose token
// expires before the given instant and that can be refreshed.
func (r *calendarRepository) GetConnectionsExpiringBefore(ctx context.Context, provider string, before time.Time) ([]entity.CalendarConnection, error) {
	query := `
		SELECT id, participant_id, provider, access_token, refresh_token, token_expires_at, calendar_email, is_active, created_at, updated_at
		FROM calendar_connections
		WHERE provider = $1
		AND is_active = true
		AND refresh_token <> ''
		AND token_expires_at < $2
		ORDER BY token_expires_at
	`
	conns := []entity.CalendarConnection{}
	if err := r.db.SelectContext(ctx, &conns, query, provider, before); err != nil {
		return nil, fmt.Errorf("get expiring connections: %w", err)
	}
	return conns, nil
}

func (r *calendarRepository) UpdateConnectionToken(ctx context.Context, conn *entity.CalendarConnection) error {
	query := `
		UPDATE calendar_connections
		SET access_token = $1, refresh_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE id = $4
	`
	if err := r.db.ExecContext(ctx, query, conn.AccessToken, conn.RefreshToken, conn.TokenExpiresAt, conn.ID); err != nil {
		return fmt.Errorf("update connection token: %w", err)
	}
	return nil
}

// DeactivateConnection soft deletes a connection whose grant was revoked.
func (r *calendarRepository) DeactivateConnection(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE calendar_connections
		SET is_active = false, updated_at = NOW()
		WHERE id = $1
	`
	if err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate connection: %w", err)
	}
	return nil
}
