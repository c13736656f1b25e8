package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"bubble/internal/admin"
	"bubble/internal/app"
	"bubble/internal/platform/config"
	"bubble/internal/platform/httpserver"
	"bubble/internal/platform/logger"
	"bubble/internal/platform/metrics"
	"bubble/pkg/platform/httputil"
	request "bubble/pkg/platform/middleware/request"
	"bubble/pkg/platform/middleware/requesttime"
)

// main wires the services, serves the admin surface and runs the background
// workers until SIGINT or SIGTERM.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.Environment)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	router := newRouter(cfg, a, log)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting bubble", "addr", cfg.Server.Addr, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return ignoreCanceled(a.Scheduler.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(a.Dispatcher.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(a.Sweeper.Run(gctx)) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(cfg config.Config, a *app.App, log *slog.Logger) http.Handler {
	httpMetrics := metrics.New()

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := a.Health(req.Context()); err != nil {
			log.WarnContext(req.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	admin.New(a.Addresses, a.NearMiss, cfg.Server.AdminToken, log,
		admin.WithLocation(cfg.NearMiss.Location()),
	).Register(r)
	return r
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
