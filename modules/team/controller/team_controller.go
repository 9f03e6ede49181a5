package controller

import (
	"time"

	"interview-scheduler/core/controller"
	"interview-scheduler/core/errors"
	"interview-scheduler/modules/team/dto"
	"interview-scheduler/modules/team/service"

	"github.com/labstack/echo/v4"
)

// TeamController handles team availability HTTP requests
type TeamController struct {
	controller.BaseController
	TeamService service.TeamAvailabilityService
}

// NewTeamController creates a new controller
func NewTeamController(svc service.TeamAvailabilityService) *TeamController {
	return &TeamController{
		BaseController: controller.NewBaseController(),
		TeamService:    svc,
	}
}

// GetTeamAvailability handles POST /team-availability
func (c *TeamController) GetTeamAvailability(ctx echo.Context) error {
	var req dto.TeamAvailabilityRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return c.ErrorResponse(ctx, err)
	}

	loc := time.UTC
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return c.BadRequest(errors.ErrInvalidInput, "Unknown timezone")
		}
		loc = l
	}

	result, appErr := c.TeamService.GetTeamAvailability(ctx.Request().Context(), req.ToQuery())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.ToTeamAvailabilityResponse(result, loc), "Team availability computed successfully")
}
