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
	"sync/atomic"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pribylovaa/reddit-gallery/internal/config"
	"github.com/pribylovaa/reddit-gallery/internal/listing"
	"github.com/pribylovaa/reddit-gallery/internal/metrics"
	"github.com/pribylovaa/reddit-gallery/internal/service"
	"github.com/pribylovaa/reddit-gallery/internal/storage"
	"github.com/pribylovaa/reddit-gallery/internal/storage/memory"
	"github.com/pribylovaa/reddit-gallery/internal/storage/postgres"
	redisstore "github.com/pribylovaa/reddit-gallery/internal/storage/redis"
	httptransport "github.com/pribylovaa/reddit-gallery/internal/transport/http"
	"github.com/pribylovaa/reddit-gallery/pkg/interceptors"
	"github.com/pribylovaa/reddit-gallery/pkg/log"
	"github.com/pribylovaa/reddit-gallery/pkg/redact"
)

// apiBasePath — префикс HTTP API сессий.
const apiBasePath = "/api/v1"

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and gRPC health server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			lg := setupLogger(cfg.Env, os.Stdout)
			slog.SetDefault(lg)
			lg.Info("starting gallery-service", "env", cfg.Env, "version", version)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return serve(log.Into(ctx, lg), cfg, lg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, lg *slog.Logger) error {
	prefs, err := openPrefs(ctx, cfg, lg)
	if err != nil {
		lg.Error("prefs_connect_failed",
			slog.String("driver", cfg.Prefs.Driver),
			slog.String("err", err.Error()),
		)
		return err
	}
	defer prefs.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	client := listing.NewClient(&http.Client{Timeout: cfg.Timeouts.Fetch}, cfg.Listing.UserAgent)

	svc := service.New(ctx, client, prefs, m, *cfg)
	defer svc.Close()
	lg.Info("service_initialized",
		slog.String("origin", cfg.Listing.Origin),
		slog.Int("page_size", cfg.Listing.PageSize),
	)

	// HTTP: API сессий, пробы, метрики.
	var ready atomic.Bool

	httpSrv := &http.Server{
		Addr: cfg.HTTP.Addr(),
		Handler: httptransport.NewRouter(svc, httptransport.Options{
			Logger:   lg,
			Timeout:  cfg.Timeouts.Service,
			BasePath: apiBasePath,
			Ready:    readiness(&ready, prefs, cfg.Timeouts.Prefs),
			Metrics:  promhttp.Handler(),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	httpErrCh := make(chan error, 1)
	go func() {
		lg.Info("http_listen_start", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrCh <- err
		}
		close(httpErrCh)
	}()

	// gRPC: health + reflection.
	grpc_prometheus.EnableHandlingTimeHistogram()

	grpcServer := grpc.NewServer(
		interceptors.Chain(lg, cfg.Timeouts.Service, grpc_prometheus.UnaryServerInterceptor),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	if cfg.Env == envLocal || cfg.Env == envDev {
		reflection.Register(grpcServer)
	}

	grpc_prometheus.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr())
	if err != nil {
		lg.Error("grpc_listen_failed",
			slog.String("addr", cfg.GRPC.Addr()),
			slog.String("err", err.Error()),
		)
		_ = httpSrv.Close()
		return fmt.Errorf("grpc listen: %w", err)
	}
	lg.Info("grpc_listen_start", slog.String("addr", cfg.GRPC.Addr()))

	grpcErrCh := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			grpcErrCh <- err
		}
		close(grpcErrCh)
	}()

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	ready.Store(true)

	var serveErr error
	select {
	case <-ctx.Done():
		lg.Info("shutdown_requested")
	case err := <-httpErrCh:
		if err != nil {
			lg.Error("http_serve_failed", slog.String("err", err.Error()))
			serveErr = err
		}
	case err := <-grpcErrCh:
		if err != nil {
			lg.Error("grpc_serve_failed", slog.String("err", err.Error()))
			serveErr = err
		}
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	ready.Store(false)

	shutdown(cfg.Timeouts.Shutdown, lg, httpSrv, grpcServer)

	lg.Info("service_stopped")
	return serveErr
}

// shutdown останавливает серверы в пределах timeout; gRPC принудительно, если не успел.
func shutdown(timeout time.Duration, lg *slog.Logger, httpSrv *http.Server, grpcServer *grpc.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		lg.Info("grpc_stopped")
	case <-shutdownCtx.Done():
		lg.Warn("grpc_force_stop")
		grpcServer.Stop()
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http_shutdown_failed", slog.String("err", err.Error()))
		_ = httpSrv.Close()
	}
}

// readiness — готов, когда серверы запущены и сетевое хранилище настроек отвечает на Ping.
func readiness(ready *atomic.Bool, prefs storage.PreferencesStorage, timeout time.Duration) func() bool {
	pinger, _ := prefs.(storage.Pinger)

	return func() bool {
		if !ready.Load() {
			return false
		}
		if pinger == nil {
			return true
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := pinger.Ping(ctx); err != nil {
			slog.Warn("readiness_ping_failed", slog.String("err", err.Error()))
			return false
		}
		return true
	}
}

// openPrefs открывает хранилище настроек по cfg.Prefs.Driver.
func openPrefs(ctx context.Context, cfg *config.Config, lg *slog.Logger) (storage.PreferencesStorage, error) {
	switch cfg.Prefs.Driver {
	case config.DriverPostgres:
		lg.Info("prefs_connecting",
			slog.String("driver", cfg.Prefs.Driver),
			slog.String("dsn", redact.DSN(cfg.Prefs.DatabaseURL)),
		)

		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		st, err := postgres.New(dbCtx, cfg.Prefs.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverRedis:
		lg.Info("prefs_connecting",
			slog.String("driver", cfg.Prefs.Driver),
			slog.String("dsn", redact.DSN(cfg.Prefs.RedisURL)),
		)

		rCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		st, err := redisstore.New(rCtx, cfg.Prefs.RedisURL, cfg.Prefs.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		lg.Info("prefs_in_memory")
		return memory.New(), nil
	}
}
