package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"interview-scheduler/core/cache"
	"interview-scheduler/core/config"
	"interview-scheduler/core/constants"
	"interview-scheduler/core/logger"
	availabilityEntity "interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/calendar/entity"
	"interview-scheduler/modules/calendar/repository"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultFreeBusyURL = "https://www.googleapis.com/calendar/v3/freeBusy"

var (
	ErrConnectionInactive = errors.New("calendar connection is inactive")
	ErrNoRefreshToken     = errors.New("token expired and no refresh token available")
)

// GoogleConnector implements CalendarConnector over the Google Calendar
// FreeBusy API. Refreshed tokens are persisted and shared through Redis.
type GoogleConnector struct {
	repo        repository.CalendarRepository
	cache       cache.Cache
	oauth       *oauth2.Config
	httpClient  *http.Client
	freeBusyURL string
	skew        time.Duration
	now         func() time.Time
}

var _ CalendarConnector = (*GoogleConnector)(nil)

type GoogleOption func(*GoogleConnector)

func WithHTTPClient(c *http.Client) GoogleOption {
	return func(g *GoogleConnector) { g.httpClient = c }
}

// WithOAuthEndpoint overrides the token endpoint, mostly for tests.
func WithOAuthEndpoint(ep oauth2.Endpoint) GoogleOption {
	return func(g *GoogleConnector) { g.oauth.Endpoint = ep }
}

func WithClock(now func() time.Time) GoogleOption {
	return func(g *GoogleConnector) { g.now = now }
}

// NewGoogleConnector builds the connector. cache may be nil, in which case
// tokens are only shared through the database.
func NewGoogleConnector(repo repository.CalendarRepository, c cache.Cache, cfg config.GoogleAPIConfig, skew time.Duration, opts ...GoogleOption) *GoogleConnector {
	freeBusyURL := cfg.FreeBusyURL
	if freeBusyURL == "" {
		freeBusyURL = defaultFreeBusyURL
	}
	g := &GoogleConnector{
		repo:  repo,
		cache: c,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     google.Endpoint,
		},
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		freeBusyURL: freeBusyURL,
		skew:        skew,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GoogleConnector) Provider() string {
	return constants.ProviderGoogle
}

type sharedToken struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry"`
}

// GetValidAccessToken returns a token valid for at least the refresh skew,
// refreshing it through the OAuth2 token endpoint when needed.
func (g *GoogleConnector) GetValidAccessToken(ctx context.Context, accountID string) (*oauth2.Token, error) {
	if tok := g.sharedToken(ctx, accountID); tok != nil {
		return tok, nil
	}

	conn, err := g.connection(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if g.fresh(conn.TokenExpiresAt) && conn.AccessToken != "" {
		tok := conn.Token()
		g.storeShared(ctx, accountID, tok)
		return tok, nil
	}

	return g.refresh(ctx, conn)
}

// Refresh forces a token refresh for accountID.
func (g *GoogleConnector) Refresh(ctx context.Context, accountID string) (*oauth2.Token, error) {
	conn, err := g.connection(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return g.refresh(ctx, conn)
}

func (g *GoogleConnector) IsTokenExpired(ctx context.Context, accountID string) (bool, error) {
	if tok := g.sharedToken(ctx, accountID); tok != nil {
		return false, nil
	}
	conn, err := g.connection(ctx, accountID)
	if err != nil {
		return true, err
	}
	return !g.fresh(conn.TokenExpiresAt), nil
}

func (g *GoogleConnector) refresh(ctx context.Context, conn *entity.CalendarConnection) (*oauth2.Token, error) {
	if conn.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	tokenSource := g.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: conn.RefreshToken})

	tok, err := tokenSource.Token()
	if err != nil {
		logger.Error("GoogleConnector:Refresh:Token:Error", "account_id", conn.ID, "error", err)
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
			if derr := g.repo.DeactivateConnection(ctx, conn.ID); derr != nil {
				logger.Error("GoogleConnector:Refresh:Deactivate:Error", "account_id", conn.ID, "error", derr)
			}
		}
		return nil, fmt.Errorf("failed to refresh google token: %w", err)
	}

	conn.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		conn.RefreshToken = tok.RefreshToken
	}
	conn.TokenExpiresAt = tok.Expiry
	if err := g.repo.UpdateConnectionToken(ctx, conn); err != nil {
		logger.Error("GoogleConnector:Refresh:UpdateConnectionToken:Error", "account_id", conn.ID, "error", err)
		return nil, fmt.Errorf("failed to update refreshed token: %w", err)
	}

	g.storeShared(ctx, conn.ID.String(), tok)
	logger.Info("GoogleConnector:Refresh:Success", "account_id", conn.ID, "expires_at", tok.Expiry)
	return tok, nil
}

type freeBusyRequest struct {
	TimeMin string         `json:"timeMin"`
	TimeMax string         `json:"timeMax"`
	Items   []freeBusyItem `json:"items"`
}

type freeBusyItem struct {
	ID string `json:"id"`
}

type freeBusyResponse struct {
	Calendars map[string]struct {
		Busy []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"busy"`
		Errors []struct {
			Domain string `json:"domain"`
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"calendars"`
}

// GetBusySlots queries the primary calendar of the token owner. It never
// returns an error; failures are reported in the result.
func (g *GoogleConnector) GetBusySlots(ctx context.Context, accountID string, token *oauth2.Token, from, to time.Time) BusySlotsResult {
	if token == nil || token.AccessToken == "" {
		return BusySlotsResult{Error: "missing access token"}
	}

	body, err := json.Marshal(freeBusyRequest{
		TimeMin: from.UTC().Format(time.RFC3339),
		TimeMax: to.UTC().Format(time.RFC3339),
		Items:   []freeBusyItem{{ID: "primary"}},
	})
	if err != nil {
		return BusySlotsResult{Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.freeBusyURL, bytes.NewReader(body))
	if err != nil {
		return BusySlotsResult{Error: err.Error()}
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		logger.Warn("GoogleConnector:GetBusySlots:Request:Error", "account_id", accountID, "error", err)
		return BusySlotsResult{Error: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Warn("GoogleConnector:GetBusySlots:Status",
			"account_id", accountID,
			"status", resp.StatusCode,
			"body", string(raw),
		)
		return BusySlotsResult{
			Error:      fmt.Sprintf("google api returned status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	var fb freeBusyResponse
	if err := json.NewDecoder(resp.Body).Decode(&fb); err != nil {
		return BusySlotsResult{Error: "invalid free/busy response: " + err.Error(), StatusCode: resp.StatusCode}
	}

	cal, ok := fb.Calendars["primary"]
	if !ok {
		return BusySlotsResult{Error: "free/busy response has no primary calendar", StatusCode: resp.StatusCode}
	}
	if len(cal.Errors) > 0 {
		reasons := make([]string, 0, len(cal.Errors))
		for _, e := range cal.Errors {
			reasons = append(reasons, e.Reason)
		}
		return BusySlotsResult{Error: "calendar error: " + strings.Join(reasons, ", "), StatusCode: resp.StatusCode}
	}

	slots := make([]availabilityEntity.Interval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		start, err1 := time.Parse(time.RFC3339, b.Start)
		end, err2 := time.Parse(time.RFC3339, b.End)
		if err1 != nil || err2 != nil {
			logger.Warn("GoogleConnector:GetBusySlots:ParseBusy", "account_id", accountID, "start", b.Start, "end", b.End)
			continue
		}
		slots = append(slots, availabilityEntity.NewInterval(start, end))
	}

	return BusySlotsResult{BusySlots: slots, Success: true, StatusCode: resp.StatusCode}
}

func (g *GoogleConnector) connection(ctx context.Context, accountID string) (*entity.CalendarConnection, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", accountID, err)
	}
	conn, err := g.repo.GetConnectionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conn.IsActive {
		return nil, ErrConnectionInactive
	}
	return conn, nil
}

func (g *GoogleConnector) fresh(expiry time.Time) bool {
	return expiry.After(g.now().Add(g.skew))
}

func (g *GoogleConnector) sharedToken(ctx context.Context, accountID string) *oauth2.Token {
	if g.cache == nil {
		return nil
	}
	raw, err := g.cache.Get(ctx, constants.RedisKeyCalendarAccessToken+accountID)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn("GoogleConnector:SharedToken:Get:Error", "account_id", accountID, "error", err)
		}
		return nil
	}
	var st sharedToken
	if err := json.Unmarshal([]byte(raw), &st); err != nil || !g.fresh(st.Expiry) {
		return nil
	}
	return &oauth2.Token{AccessToken: st.AccessToken, TokenType: "Bearer", Expiry: st.Expiry}
}

func (g *GoogleConnector) storeShared(ctx context.Context, accountID string, tok *oauth2.Token) {
	if g.cache == nil || tok == nil {
		return
	}
	ttl := tok.Expiry.Sub(g.now()) - g.skew
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(sharedToken{AccessToken: tok.AccessToken, Expiry: tok.Expiry})
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, constants.RedisKeyCalendarAccessToken+accountID, string(raw), ttl); err != nil {
		logger.Warn("GoogleConnector:SharedToken:Set:Error", "account_id", accountID, "error", err)
	}
}
