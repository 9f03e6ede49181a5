package router

import (
	"interview-scheduler/core/middleware"
	"interview-scheduler/modules/suggestion/controller"

	"github.com/labstack/echo/v4"
)

// SuggestionRouter handles suggestion routes
type SuggestionRouter struct {
	SuggestionController *controller.SuggestionController
}

// NewSuggestionRouter creates a new router
func NewSuggestionRouter(suggestionController *controller.SuggestionController) *SuggestionRouter {
	return &SuggestionRouter{
		SuggestionController: suggestionController,
	}
}

// Setup registers suggestion routes
func (r *SuggestionRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	v1.POST("/suggestions", r.SuggestionController.Suggest, mw.Observe("suggestions"))
}
