package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phu68/Cong-cu-tinh-luong/internal/domain/auth"
	"github.com/phu68/Cong-cu-tinh-luong/internal/domain/payroll"
	"github.com/phu68/Cong-cu-tinh-luong/internal/platform/config"
	"github.com/phu68/Cong-cu-tinh-luong/internal/platform/jobs"
	"github.com/phu68/Cong-cu-tinh-luong/internal/platform/metrics"
	payrollhandler "github.com/phu68/Cong-cu-tinh-luong/internal/transport/http/handlers/payroll"
	"github.com/phu68/Cong-cu-tinh-luong/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Service *payroll.Service
	Metrics *metrics.Collector
	Router  http.Handler
}

func New(cfg config.Config) (*App, error) {
	schedule, err := LoadSchedule(cfg.ScheduleFile)
	if err != nil {
		return nil, err
	}

	collector := metrics.New()
	svc, err := payroll.NewService(schedule, cfg.PayslipCompany, collector)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithTrustedProxy(cfg.TrustProxy)))

		var guards []func(http.Handler) http.Handler
		if cfg.JWTSecret != "" {
			guards = append(guards, middleware.RequireAuth(auth.ScopeCalculate))
		}
		batch := payrollhandler.BatchConfig{Pool: jobs.NewPool(cfg.BatchWorkers), MaxItems: cfg.BatchMaxItems}
		payrollhandler.NewHandler(svc, batch, guards...).RegisterRoutes(r)
	})

	return &App{Config: cfg, Service: svc, Metrics: collector, Router: router}, nil
}

// LoadSchedule reads the rate schedule file, or returns the statutory
// default when path is empty.
func LoadSchedule(path string) (payroll.Schedule, error) {
	if path == "" {
		slog.Info("payroll schedule loaded", "source", "default")
		return payroll.DefaultSchedule(), nil
	}
	schedule, err := payroll.LoadScheduleFile(path)
	if err != nil {
		return payroll.Schedule{}, fmt.Errorf("load schedule %s: %w", path, err)
	}
	slog.Info("payroll schedule loaded", "source", path, "tiers", len(schedule.Tiers()))
	return schedule, nil
}

func Run() error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	app, err := New(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("payroll server listening", "addr", cfg.Addr, "env", cfg.Environment, "auth", cfg.JWTSecret != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	slog.Info("payroll server shutting down")
	return srv.Shutdown(shutdownCtx)
}
