package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gsarma/judgekit/internal/api"
	"github.com/gsarma/judgekit/internal/config"
	"github.com/gsarma/judgekit/internal/crypto"
	"github.com/gsarma/judgekit/internal/limiter"
	"github.com/gsarma/judgekit/internal/store"
	"github.com/gsarma/judgekit/internal/tenant"
	"github.com/gsarma/judgekit/internal/worker"
)

const dbPingTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := cfg.NewLogger(os.Stderr)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	keys, err := crypto.NewKeyring(cfg.Security.RootEncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize keyring")
	}

	eng, err := cfg.NewEngine(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build execution engine")
	}
	logger.Info().
		Str("backend", eng.Backend()).
		Int("languages", len(eng.SupportedLanguages())).
		Str("mode", cfg.Server.Mode).
		Msg("engine ready")

	queries := store.New(pool)
	rl := limiter.New(cfg.RateLimit.GlobalRPS, cfg.RateLimit.TenantRPS, cfg.RateLimit.TenantBurst)
	rl.StartCleanup(ctx, 10*time.Minute)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	h := api.RegisterRoutes(router, api.Deps{
		Queries: queries,
		Tenants: tenant.NewService(queries, keys),
		Engine:  eng,
		Limiter: rl,
		Logger:  logger,
	})

	w := worker.New(queries, h, cfg.Worker.Concurrency, logger)

	var wg sync.WaitGroup
	if cfg.Server.Mode != config.ModeAPI {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Start(ctx) // blocks until ctx cancelled
		}()
	}

	if cfg.Server.Mode == config.ModeWorker {
		logger.Info().Msg("starting in worker-only mode")
		wg.Wait()
		return
	}

	// API-only mode runs no embedded worker goroutines; scale workers separately.
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	wg.Wait()
}

func connect(ctx context.Context, url string, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "judgekit"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info().Msg("database connection established")
	return pool, nil
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
