// Command server runs the dashboard query HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"dashquery/internal/api"
	"dashquery/internal/app"
	"dashquery/internal/config"
	"dashquery/internal/metrics"
	"dashquery/internal/middleware"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, app.Deps{Cfg: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("close database", "error", err)
		}
	}()

	spec, err := api.LoadSpec(ctx)
	if err != nil {
		return err
	}
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	router, err := api.NewRouter(api.RouterDeps{
		Handler:        api.NewHandler(application.Dashboards, application.Registry, logger, cfg.QueryTimeout),
		Spec:           spec,
		Logger:         logger,
		Metrics:        metrics.Handler(application.Prometheus),
		Health:         application.Ping,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("HTTP API listening",
		"addr", ln.Addr().String(),
		"driver", cfg.DBDriver,
		"db_path", cfg.DBPath,
		"try", tryHint(ln.Addr().String()))
	return serve(ctx, logger, newServer(ctx, cfg, router), ln, limiter)
}

// newServer applies the configured timeouts. Request contexts derive from ctx
// so in-flight queries are canceled on shutdown.
func newServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// serve runs srv on ln and the limiter sweep until ctx is done, then shuts
// the server down gracefully.
func serve(ctx context.Context, logger *slog.Logger, srv *http.Server, ln net.Listener, limiter *middleware.RateLimiter) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func tryHint(addr string) string {
	return "curl http://" + displayHostForListenAddr(addr) + "/v1/data-sources"
}

// displayHostForListenAddr turns a bound address into a host:port a local
// client can dial. Wildcard hosts become localhost.
func displayHostForListenAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
