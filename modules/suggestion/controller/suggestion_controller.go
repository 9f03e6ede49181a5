package controller

import (
	"interview-scheduler/core/controller"
	"interview-scheduler/core/errors"
	"interview-scheduler/modules/suggestion/dto"
	"interview-scheduler/modules/suggestion/service"

	"github.com/labstack/echo/v4"
)

// SuggestionController handles slot suggestion HTTP requests
type SuggestionController struct {
	controller.BaseController
	Engine service.SuggestionEngine
}

// NewSuggestionController creates a new controller
func NewSuggestionController(engine service.SuggestionEngine) *SuggestionController {
	return &SuggestionController{
		BaseController: controller.NewBaseController(),
		Engine:         engine,
	}
}

// Suggest handles POST /suggestions
func (c *SuggestionController) Suggest(ctx echo.Context) error {
	var req dto.SuggestionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return c.ErrorResponse(ctx, err)
	}

	result, appErr := c.Engine.Suggest(ctx.Request().Context(), req.ToQuery())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.ToSuggestionResponse(result), "Suggestions computed successfully")
}
