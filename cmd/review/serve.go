package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/docflow/review-service/internal/config"
	"github.com/docflow/review-service/internal/document/cache"
	"github.com/docflow/review-service/internal/document/handler"
	"github.com/docflow/review-service/internal/document/service"
	"github.com/docflow/review-service/internal/oidc"
	"github.com/docflow/review-service/internal/storage"
	"github.com/docflow/review-service/internal/tokens"
	"github.com/docflow/review-service/internal/users"
	"github.com/docflow/review-service/pkg/logger"
	"github.com/docflow/review-service/pkg/metrics"
	"github.com/docflow/review-service/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema/indexes before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	started := time.Now()

	b, err := openStore(ctx, cfg, migrate)
	if err != nil {
		return err
	}
	defer b.close()
	store := b.store
	profiles := users.NewService(b.users)

	checks := map[string]handler.Check{"store": store.Ping}
	var opts []service.Option

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis ping failed (%s): %v", cfg.Redis.Addr(), err)
		} else {
			logger.Infof("connected to redis at %s", cfg.Redis.Addr())
		}
		opts = append(opts, service.WithStatsCache(cache.NewRedisStatsCache(rdb, "", cfg.Redis.StatsTTL)))
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	if cfg.Archive.Enabled {
		minioStore, err := storage.NewMinIOStorage(ctx, &cfg.Archive.MinIO)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithArchiver(storage.NewArchiver(minioStore, cfg.Archive.Prefix)))
		logger.Infof("archiving approved documents to bucket %s", cfg.Archive.MinIO.Bucket)
	}

	verifier, err := buildVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	lifecycle := service.NewLifecycle(store, opts...)
	ledger := service.NewLedger(store, lifecycle, opts...)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	handler.RegisterHealth(r, started, checks)
	handler.RegisterSwagger(r)
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1", middleware.AuthMiddleware(verifier), users.RecordActor(profiles))
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.Backend == "redis" {
			api.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Window))
		} else {
			api.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	handler.New(lifecycle, ledger, profiles).Register(api)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("review service listening on %s (backend=%s)", srv.Addr, cfg.Store.Backend)
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
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildVerifier accepts the service's own HS256 tokens and, when configured,
// Keycloak ID tokens. The insecure verifier goes last.
func buildVerifier(ctx context.Context, cfg *config.Config) (middleware.Verifier, error) {
	var vs middleware.Verifiers
	if cfg.Auth.JWTSecret != "" {
		vs = append(vs, tokens.NewHMACVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer))
	}
	if issuer := cfg.Auth.Keycloak.IssuerURL(); issuer != "" {
		v, err := oidc.NewVerifier(ctx, issuer, cfg.Auth.Keycloak.ClientID)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	if cfg.Auth.InsecureTokens {
		logger.Warn("enabling insecure token verifier (signatures are NOT checked)")
		vs = append(vs, oidc.NewInsecureVerifier(cfg.Auth.Keycloak.IssuerURL()))
	}
	return vs, nil
}
