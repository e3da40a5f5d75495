package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/meeting-reservation/internal/config"
	"github.com/iliyamo/meeting-reservation/internal/handler"
	"github.com/iliyamo/meeting-reservation/internal/middleware"
	"github.com/iliyamo/meeting-reservation/internal/notify"
	"github.com/iliyamo/meeting-reservation/internal/repository"
	"github.com/iliyamo/meeting-reservation/internal/router"
	"github.com/iliyamo/meeting-reservation/internal/service"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reservation API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if port != "" {
				cfg.Port = port
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg, log)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port, overrides APP_PORT")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("store close", zap.Error(err))
		}
	}()

	checker, err := service.NewChecker(cfg.Booking.ConflictPolicy, cfg.Booking.ConflictWindow)
	if err != nil {
		return err
	}
	sink, err := newSink(cfg.Notify, log)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(sink, cfg.Notify.Workers, cfg.Notify.Buffer, cfg.Notify.Timeout, log)

	svc := service.NewReservationService(store, service.Options{
		Checker:          checker,
		Notifier:         dispatcher,
		Logger:           log,
		IdempotentDelete: cfg.Booking.DeleteIdempotent,
		Hours:            &service.BusinessHours{Open: cfg.Booking.OpenHour, Close: cfg.Booking.CloseHour},
	})

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		log.Info("redis unavailable: cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLog(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))

	router.RegisterRoutes(e)
	router.RegisterReservations(e, handler.NewReservationHandler(svc, log), router.Middlewares{
		Read: []echo.MiddlewareFunc{middleware.NewRedisCache(cfg.Cache, rdb)},
		Write: []echo.MiddlewareFunc{
			middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
			middleware.InvalidateOnWrite(cfg.Cache, rdb, log),
		},
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.String("store", cfg.Store.Driver), zap.String("notify", cfg.Notify.Transport))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err, ok := <-errc:
		if ok {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn("notifications not drained", zap.Error(err))
	}
	return serveErr
}
