package team

import (
	"interview-scheduler/core/config"
	"interview-scheduler/core/metrics"
	"interview-scheduler/core/middleware"
	availabilityService "interview-scheduler/modules/availability/service"
	"interview-scheduler/modules/team/controller"
	"interview-scheduler/modules/team/router"
	"interview-scheduler/modules/team/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the team availability module and registers routes
func Init(e *echo.Echo, resolver availabilityService.AvailabilityResolver, cfg config.SchedulingConfig, m *metrics.Metrics, mw *middleware.Middleware) {
	svc := service.NewTeamService(resolver, service.TeamConfigFrom(cfg), m)
	ctrl := controller.NewTeamController(svc)
	rtr := router.NewTeamRouter(ctrl)

	rtr.Setup(e, mw)
}
