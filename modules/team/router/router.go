package router

import (
	"interview-scheduler/core/middleware"
	"interview-scheduler/modules/team/controller"

	"github.com/labstack/echo/v4"
)

// TeamRouter handles team availability routes
type TeamRouter struct {
	TeamController *controller.TeamController
}

// NewTeamRouter creates a new router
func NewTeamRouter(teamController *controller.TeamController) *TeamRouter {
	return &TeamRouter{
		TeamController: teamController,
	}
}

// Setup registers team availability routes
func (r *TeamRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	v1.POST("/team-availability", r.TeamController.GetTeamAvailability, mw.Observe("team_availability"))
}
