package entity

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// CalendarConnection stores a participant's external calendar credentials.
// Its ID is the account id handed to external calendar sources.
type CalendarConnection struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ParticipantID  string    `db:"participant_id" json:"participant_id"`
	Provider       string    `db:"provider" json:"provider"` // "google"
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	CalendarEmail  string    `db:"calendar_email" json:"calendar_email"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func (CalendarConnection) TableName() string {
	return "calendar_connections"
}

// Token returns the stored credentials as an oauth2 token.
func (c CalendarConnection) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.TokenExpiresAt,
	}
}
