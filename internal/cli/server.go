package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"live-trivia-service/internal/app"
	"live-trivia-service/internal/auth"
	"live-trivia-service/internal/config"
	"live-trivia-service/internal/infra/memory"
	natsevents "live-trivia-service/internal/infra/nats"
	pgstore "live-trivia-service/internal/infra/postgres"
	redisstore "live-trivia-service/internal/infra/redis"
	"live-trivia-service/internal/metrics"
	transport "live-trivia-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
}

func runServer(ctx context.Context, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	setupLogging(firstNonEmpty(opts.logLevel, cfg.Log.Level), cfg.Log.Pretty)

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret not configured")
	}
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
	}

	finalPort := firstNonEmpty(opts.port, cfg.Server.Port, "8080")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not reachable yet")
		}
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
	}

	loader, err := quizLoader(cfg, pool)
	if err != nil {
		return err
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.LobbyStore
	if redisClient != nil {
		store = redisstore.NewLobbyStore(redisClient, redisTTL)
	} else {
		store = memory.NewLobbyStore()
	}

	var results app.ResultWriter = memory.NewResultStore()
	if pool != nil {
		results = pgstore.NewResultWriter(pool)
	}

	var events app.EventPublisher = app.NoOpPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := natsevents.Connect(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer nc.Drain()
		events = natsevents.NewPublisher(nc, cfg.NATS.SubjectPrefix)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	hub := transport.NewHub(transport.WithDropHook(collector.FrameDropped))
	registry := app.NewRegistry(store, quizRepo, cfg.LobbyDefaults())
	service := app.NewLobbyService(registry, app.NewBroadcaster(hub), results,
		app.WithEventPublisher(events),
		app.WithMetrics(collector),
	)
	wsHandler := transport.NewWSHandler(service, hub, auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		transport.WithConnectionMetrics(collector),
		transport.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	)
	router := transport.NewRouter(service, wsHandler, hub, transport.RouterConfig{
		PublicURL:      cfg.Server.PublicURL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Gatherer:       reg,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", finalPort).
			Bool("redis", redisClient != nil).
			Bool("postgres", pool != nil).
			Bool("nats", cfg.NATS.URL != "").
			Msg("starting trivia service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
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

// quizLoader picks Postgres when configured, then a YAML quiz file, then the built-in sample.
func quizLoader(cfg config.Config, pool *pgxpool.Pool) (memory.QuizLoader, error) {
	if pool != nil {
		return pgstore.NewQuizLoader(pool), nil
	}
	if cfg.Quiz.File != "" {
		loader, err := memory.LoadQuizFile(cfg.Quiz.File)
		if err != nil {
			return nil, err
		}
		return loader, nil
	}
	log.Warn().Msg("no quiz source configured, serving the built-in sample quiz")
	return memory.NewStaticQuizLoader(sampleQuizzes()), nil
}
