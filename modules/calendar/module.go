package calendar

import (
	"interview-scheduler/core/cache"
	"interview-scheduler/core/config"
	"interview-scheduler/core/database"
	"interview-scheduler/core/middleware"
	availabilityService "interview-scheduler/modules/availability/service"
	"interview-scheduler/modules/calendar/controller"
	"interview-scheduler/modules/calendar/repository"
	"interview-scheduler/modules/calendar/router"
	"interview-scheduler/modules/calendar/service"
	"interview-scheduler/modules/calendar/worker"

	"github.com/labstack/echo/v4"
)

// Module exposes the calendar sources consumed by the availability resolver.
type Module struct {
	Internal *service.InternalCalendarSource
	External []availabilityService.ExternalSource
	// Worker is nil when background refresh is disabled or Redis is unavailable.
	Worker *worker.Worker

	repo          repository.CalendarRepository
	maxWindowDays int
}

// Init wires the calendar repository, the Google connector and its credential cache.
// redisCache may be nil.
func Init(db database.IDatabase, redisCache cache.Cache, cfg *config.Config) (*Module, error) {
	repo := repository.NewCalendarRepository(db)

	google := service.NewGoogleConnector(repo, redisCache, cfg.GoogleAPI, cfg.Scheduling.TokenRefreshSkew)
	creds, err := service.NewCredentialCache(google, cfg.Scheduling.CredentialCacheSize, cfg.Scheduling.TokenRefreshSkew)
	if err != nil {
		return nil, err
	}

	m := &Module{
		Internal:      service.NewInternalCalendarSource(repo),
		External:      []availabilityService.ExternalSource{service.NewExternalCalendarSource(google, creds)},
		repo:          repo,
		maxWindowDays: cfg.Scheduling.MaxWindowDays,
	}

	if cfg.Worker.Enabled && cfg.Redis.Enabled && redisCache != nil {
		refresher := worker.NewTokenRefresher(repo, google, cfg.Scheduling.TokenRefreshSkew)
		m.Worker = worker.NewWorker(cfg.Redis, cfg.Worker, refresher)
	}
	return m, nil
}

// RegisterRoutes mounts the participant calendar endpoints. The resolver is
// built from this module's sources, so it is passed in after Init.
func (m *Module) RegisterRoutes(e *echo.Echo, resolver availabilityService.AvailabilityResolver, mw *middleware.Middleware) {
	svc := service.NewCalendarService(m.repo, resolver, m.maxWindowDays)
	ctrl := controller.NewCalendarController(svc)
	rtr := router.NewCalendarRouter(ctrl)

	rtr.Setup(e, mw)
}
