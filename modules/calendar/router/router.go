package router

import (
	"interview-scheduler/core/middleware"
	"interview-scheduler/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{
		controller: controller,
	}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	calendarRoutes := v1.Group("/participants/:id/calendar")
	calendarRoutes.GET("/connections", r.controller.GetConnections, mw.Observe("calendar_connections"))
	calendarRoutes.GET("/free-busy", r.controller.GetFreeBusy, mw.Observe("free_busy"))
}
