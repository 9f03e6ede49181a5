package constants

import "time"

const (
	DefaultTimeout = 10 * time.Second

	// Echo context keys
	ContextRequestID = "request_id"

	HeaderRequestID = "X-Request-ID"

	// Redis keys
	RedisKeyCalendarAccessToken = "calendar:access_token:"

	// Providers
	ProviderGoogle = "google"

	// Background task types
	TaskRefreshExpiringTokens = "calendar:refresh_expiring_tokens"
	QueueCalendar             = "calendar"

	// Database pool defaults used when config leaves them at zero
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // in minutes
)
