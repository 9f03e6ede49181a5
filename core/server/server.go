package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"interview-scheduler/core/cache"
	"interview-scheduler/core/config"
	"interview-scheduler/core/controller"
	"interview-scheduler/core/database"
	"interview-scheduler/core/logger"
	"interview-scheduler/core/metrics"
	"interview-scheduler/core/middleware"
	"interview-scheduler/core/validator"
	availabilityService "interview-scheduler/modules/availability/service"
	"interview-scheduler/modules/calendar"
	"interview-scheduler/modules/suggestion"
	"interview-scheduler/modules/team"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run loads the configuration, wires every module and serves HTTP until
// SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.Init()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Encoding); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	var redisCache cache.Cache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("Server:Run:Redis:Unavailable", "addr", cfg.Redis.Addr, "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Default()
	}

	calMod, err := calendar.Init(db, redisCache, cfg)
	if err != nil {
		return fmt.Errorf("init calendar module: %w", err)
	}
	resolver := availabilityService.NewResolver(
		calMod.Internal,
		calMod.External,
		availabilityService.ResolverConfigFrom(cfg.Scheduling),
		availabilityService.WithResolverMetrics(m),
	)

	mw := middleware.NewMiddleware(cfg.Server.RequestTimeout, m)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = controller.HTTPErrorHandler
	e.Use(echomw.Recover())
	e.Use(mw.RequestID(), mw.Logger(), mw.Timeout())

	suggestion.Init(e, resolver, cfg.Scheduling, m, mw)
	team.Init(e, resolver, cfg.Scheduling, m, mw)
	calMod.RegisterRoutes(e, resolver, mw)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.Handler()))
	}

	if calMod.Worker != nil {
		if err := calMod.Worker.Start(); err != nil {
			logger.Warn("Server:Run:Worker:StartError", "error", err)
			calMod.Worker = nil
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server:Run:Listening", "addr", cfg.ServerAddr())
		if err := e.Start(cfg.ServerAddr()); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Server:Run:ShutdownSignal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server:Run:Shutdown:Error", "error", err)
	}
	if calMod.Worker != nil {
		calMod.Worker.Shutdown()
	}
	logger.Info("Server:Run:Stopped")
	return nil
}
