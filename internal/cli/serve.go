package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-arcade/internal/app"
	"quiz-arcade/internal/catalog"
	"quiz-arcade/internal/config"
	"quiz-arcade/internal/infra/file"
	"quiz-arcade/internal/infra/memory"
	pgloader "quiz-arcade/internal/infra/postgres"
	redisinfra "quiz-arcade/internal/infra/redis"
	"quiz-arcade/internal/logger"
	transport "quiz-arcade/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	service, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	wsHandler := transport.NewWSHandler(service, log)
	scoresHandler := transport.NewScoresHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/scores", scoresHandler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildService assembles the category repository, score slot, and service
// from config. The zero-config path serves the embedded catalog and a JSON
// file leaderboard.
func buildService(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app.QuizService, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, pool.Close)
	}

	var loader memory.CategoryLoader = memory.NewStaticCategoryLoader(catalog.MustDefault())
	if pool != nil {
		loader = pgloader.NewCategoryLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var categories app.CategoryRepository
	if redisClient != nil {
		categories = redisinfra.NewCategoryRepository(redisClient, loader, catalogTTL)
	} else {
		categories = memory.NewCategoryRepository(loader, catalogTTL)
	}

	var slot app.ScoreSlot
	switch cfg.Scores.Backend {
	case "redis":
		if redisClient == nil {
			cleanup()
			return nil, nil, fmt.Errorf("scores backend %q requires redis.addr", cfg.Scores.Backend)
		}
		slot = redisinfra.NewScoreSlot(redisClient)
	case "memory":
		slot = memory.NewScoreSlot()
	case "file", "":
		slot = file.NewScoreSlot(cfg.Scores.Path)
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown scores backend %q", cfg.Scores.Backend)
	}

	store := app.NewScoreStore(slot, log)
	service := app.NewQuizService(categories, store,
		app.WithDifficulties(cfg.Difficulties),
		app.WithLogger(log),
	)
	return service, cleanup, nil
}
