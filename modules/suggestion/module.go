package suggestion

import (
	"interview-scheduler/core/config"
	"interview-scheduler/core/metrics"
	"interview-scheduler/core/middleware"
	availabilityService "interview-scheduler/modules/availability/service"
	"interview-scheduler/modules/suggestion/controller"
	"interview-scheduler/modules/suggestion/router"
	"interview-scheduler/modules/suggestion/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the suggestion module and registers routes
func Init(e *echo.Echo, resolver availabilityService.AvailabilityResolver, cfg config.SchedulingConfig, m *metrics.Metrics, mw *middleware.Middleware) {
	engine := service.NewEngine(resolver, service.EngineConfigFrom(cfg), service.WithEngineMetrics(m))
	ctrl := controller.NewSuggestionController(engine)
	rtr := router.NewSuggestionRouter(ctrl)

	rtr.Setup(e, mw)
}
