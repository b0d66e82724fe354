package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/config"
	"quiz-game-service/internal/fixture"
	"quiz-game-service/internal/infra/memory"
	"quiz-game-service/internal/infra/postgres"
	redisrepo "quiz-game-service/internal/infra/redis"
	"quiz-game-service/internal/logger"
	"quiz-game-service/internal/metrics"
	transport "quiz-game-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz game server",
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
	log := logger.New("quiz-game", cfg.Log.Level)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, loader, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	quizTTL := config.Duration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var quizzes app.QuizRepository
	if redisClient := newRedisClient(cfg); redisClient != nil {
		defer redisClient.Close()
		quizzes = redisrepo.NewQuizRepository(redisClient, loader, quizTTL).WithLogger(log)
	} else {
		quizzes = memory.NewQuizRepository(loader, quizTTL)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service := app.NewGameService(store, quizzes,
		app.WithLogger(log),
		app.WithMetrics(metrics.New(reg)),
	)
	wsHandler := transport.NewWSHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting quiz game service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore returns the Postgres store when configured, otherwise an in-memory store seeded from
// the fixture file (or the built-in sample quiz).
func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (app.Store, memory.QuizLoader, func(), error) {
	if cfg.Postgres.URL == "" {
		quizzes := fixture.Sample()
		if cfg.Quiz.FixturePath != "" {
			var err error
			if quizzes, err = fixture.Load(cfg.Quiz.FixturePath); err != nil {
				return nil, nil, nil, err
			}
		}
		log.WithField("quizzes", len(quizzes)).Warn("postgres not configured, using in-memory store")
		store := memory.NewStore(quizzes...)
		return store, store, func() {}, nil
	}

	if err := runMigrations(ctx, cfg); err != nil {
		return nil, nil, nil, err
	}

	db := postgres.OpenDB(cfg.Postgres.URL)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		db.Close()
	}
	return postgres.NewStore(db), postgres.NewQuizLoader(pool), cleanup, nil
}

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
