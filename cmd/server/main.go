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
	"time"

	"golang.org/x/sync/errgroup"

	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/health"
	"gatekeeper/internal/platform/logger"
	"gatekeeper/internal/platform/metrics"
	redisclient "gatekeeper/internal/platform/redis"
	ratelimitconfig "gatekeeper/internal/ratelimit/config"
	ratelimithandler "gatekeeper/internal/ratelimit/handler"
	ratelimitmetrics "gatekeeper/internal/ratelimit/metrics"
	ratelimitmw "gatekeeper/internal/ratelimit/middleware"
	"gatekeeper/internal/ratelimit/ports"
	"gatekeeper/internal/ratelimit/service"
	"gatekeeper/internal/ratelimit/store/counter"
	httptransport "gatekeeper/internal/transport/http"
	versionhandler "gatekeeper/internal/versioning/handler"
	versionmetrics "gatekeeper/internal/versioning/metrics"
	versionmw "gatekeeper/internal/versioning/middleware"
	"gatekeeper/internal/versioning/resolver"
	"gatekeeper/pkg/platform/middleware/admin"
	"gatekeeper/pkg/platform/middleware/auth"
	"gatekeeper/pkg/platform/middleware/metadata"
	"gatekeeper/pkg/platform/middleware/request"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
	redisKeyPrefix    = "gatekeeper:rl:"
)

// main wires high-level dependencies and owns the process lifecycle.
// Request governance lives in the versioning and ratelimit modules.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing gatekeeper",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"api_versions", cfg.Versioning.Supported,
		"rate_limit_disabled", cfg.RateLimit.Disabled,
	)

	reg := metrics.New()
	healthHandler := health.New(cfg.Environment)

	res, err := resolver.New(resolver.Config{
		Supported: cfg.Versioning.Supported,
		Current:   cfg.Versioning.Current,
		Default:   cfg.Versioning.Default,
		Product:   cfg.Versioning.Product,
	})
	if err != nil {
		return fmt.Errorf("api versioning: %w", err)
	}

	policies := ratelimitconfig.DefaultConfig()
	if cfg.RateLimit.PolicyFile != "" {
		policies, err = ratelimitconfig.LoadFile(cfg.RateLimit.PolicyFile, policies)
		if err != nil {
			return err
		}
		log.Info("loaded rate limit policy overrides", "file", cfg.RateLimit.PolicyFile)
	}

	redis, err := redisclient.New(ctx, cfg.Redis, reg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redis != nil {
		defer func() {
			if err := redis.Close(); err != nil {
				log.Warn("failed to close redis client", "error", err)
			}
		}()
		healthHandler.RegisterOptional("redis", redis.Health)
	}

	store, err := newCounterStore(cfg, redis, log)
	if err != nil {
		return err
	}

	governor, err := service.New(policies, store,
		service.WithLogger(log),
		service.WithMetrics(ratelimitmetrics.New(reg)),
		service.WithStoreTimeout(cfg.RateLimit.StoreTimeout),
		service.WithHealthPath(cfg.HealthPath),
	)
	if err != nil {
		return fmt.Errorf("rate governor: %w", err)
	}

	trusted, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	var identity auth.JWTValidator
	if cfg.JWTSigningKey != "" {
		identity = auth.NewHS256Validator(cfg.JWTSigningKey)
	} else {
		log.Warn("JWT_SIGNING_KEY not set, all callers are treated as anonymous")
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		HealthPath:     cfg.HealthPath,
		Health:         healthHandler,
		Metrics:        reg.Handler(),
		RequestMetrics: request.NewMetrics(reg),
		ClientMetadata: metadata.NewMiddleware(&metadata.Config{TrustedProxies: trusted}),
		Identity:       identity,
		AdminVerifier:  adminVerifier(cfg, log),
		Versioning:     versionmw.New(res, log, versionmw.WithMetrics(versionmetrics.New(reg))).Handler,
		RateLimit:      ratelimitmw.New(governor, log, ratelimitmw.WithDisabled(cfg.RateLimit.Disabled)).Handler,
		Admin: []httptransport.AdminRoutes{
			ratelimithandler.New(governor, log),
			versionhandler.New(res, log),
		},
		Downstream: httptransport.EchoHandler(res),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if redis != nil {
		g.Go(func() error {
			return redis.RunPoolStats(gctx, poolStatsInterval)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func newCounterStore(cfg config.Server, redis *redisclient.Client, log *slog.Logger) (ports.CounterStore, error) {
	if redis != nil {
		log.Info("using redis counter store")
		return counter.NewRedisStore(redis.Client, redisKeyPrefix), nil
	}
	log.Warn("REDIS_URL not set, using in-memory counter store; limits are per instance",
		"capacity", cfg.RateLimit.MemoryStoreCapacity,
	)
	store, err := counter.NewMemoryStore(cfg.RateLimit.MemoryStoreCapacity)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func adminVerifier(cfg config.Server, log *slog.Logger) admin.TokenVerifier {
	switch {
	case cfg.AdminTokenHash != "":
		return admin.HashedToken(cfg.AdminTokenHash)
	case cfg.AdminToken != "":
		if cfg.Environment != "production" && cfg.AdminToken == "demo-admin-token" {
			log.Warn("using the development admin token")
		}
		return admin.PlainToken(cfg.AdminToken)
	default:
		log.Warn("no admin token configured, admin endpoints are disabled")
		return nil
	}
}
