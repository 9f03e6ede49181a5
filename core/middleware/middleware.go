package middleware

import (
	"context"
	"time"

	"interview-scheduler/core/constants"
	"interview-scheduler/core/logger"
	"interview-scheduler/core/metrics"
	"interview-scheduler/core/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Middleware bundles the HTTP middlewares shared by every module router.
type Middleware struct {
	requestTimeout time.Duration
	metrics        *metrics.Metrics
}

func NewMiddleware(requestTimeout time.Duration, m *metrics.Metrics) *Middleware {
	if requestTimeout <= 0 {
		requestTimeout = constants.DefaultTimeout
	}
	return &Middleware{requestTimeout: requestTimeout, metrics: m}
}

// RequestID reuses an inbound X-Request-ID or generates one.
func (m *Middleware) RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(constants.HeaderRequestID)
			if reqID == "" {
				reqID = utils.GenerateID(16)
			}
			c.Set(constants.ContextRequestID, reqID)
			c.Response().Header().Set(constants.HeaderRequestID, reqID)
			return next(c)
		}
	}
}

// RequestLogger logs method, path, status and duration of every request.
func (m *Middleware) RequestLogger(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			dur := time.Since(start)
			reqID, _ := c.Get(constants.ContextRequestID).(string)
			log.Infow("http",
				"method", c.Request().Method,
				"path", c.Request().URL.RequestURI(),
				"status", c.Response().Status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"request_id", reqID,
			)
			return nil
		}
	}
}

// Timeout bounds the request context. Handlers observe ctx.Done() themselves.
func (m *Middleware) Timeout() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), m.requestTimeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// Observe counts the requests of a route by status class.
func (m *Middleware) Observe(route string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			outcome := "ok"
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			switch {
			case status >= 500:
				outcome = "error"
			case status >= 400:
				outcome = "rejected"
			}
			m.metrics.ObserveHTTP(route, outcome)
			return err
		}
	}
}

// Logger is the default request logger bound to the process logger.
func (m *Middleware) Logger() echo.MiddlewareFunc {
	return m.RequestLogger(logger.L())
}
