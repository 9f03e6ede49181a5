package controller

import (
	"interview-scheduler/core/controller"
	"interview-scheduler/core/errors"
	availabilityEntity "interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/calendar/dto"
	"interview-scheduler/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	controller.BaseController
	service service.CalendarService
}

func NewCalendarController(service service.CalendarService) *CalendarController {
	return &CalendarController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// GetConnections returns the calendar connections of a participant
// GET /api/v1/participants/:id/calendar/connections
func (c *CalendarController) GetConnections(ctx echo.Context) error {
	participantID := ctx.Param("id")

	conns, appErr := c.service.GetConnections(ctx.Request().Context(), participantID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.ToConnectionListResponse(participantID, conns), "Calendar connections retrieved successfully")
}

// GetFreeBusy returns the resolved free and busy time of a participant
// GET /api/v1/participants/:id/calendar/free-busy?start_time=...&end_time=...
func (c *CalendarController) GetFreeBusy(ctx echo.Context) error {
	var q dto.FreeBusyQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &q); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "start_time and end_time must be RFC3339")
	}
	if err := ctx.Validate(&q); err != nil {
		return c.ErrorResponse(ctx, err)
	}

	window := availabilityEntity.NewInterval(q.StartTime, q.EndTime)
	res, appErr := c.service.GetFreeBusy(ctx.Request().Context(), ctx.Param("id"), window)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.ToFreeBusyResponse(res), "Free/busy retrieved successfully")
}
