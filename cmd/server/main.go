package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/atmx/clicker-engine/internal/api"
	"github.com/atmx/clicker-engine/internal/casino"
	"github.com/atmx/clicker-engine/internal/config"
	"github.com/atmx/clicker-engine/internal/game"
	"github.com/atmx/clicker-engine/internal/idgen"
	"github.com/atmx/clicker-engine/internal/income"
	"github.com/atmx/clicker-engine/internal/journal"
	"github.com/atmx/clicker-engine/internal/market"
	"github.com/atmx/clicker-engine/internal/metrics"
	"github.com/atmx/clicker-engine/internal/model"
	"github.com/atmx/clicker-engine/internal/shop"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// --- Initialize journal ---
	var jr journal.Journal
	var cleanup []func()

	switch {
	case cfg.Journal.DatabaseURL != "":
		pool, err := pgxpool.New(context.Background(), cfg.Journal.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		pj := journal.NewPostgresJournal(pool)
		if err := pj.Migrate(context.Background()); err != nil {
			slog.Error("journal migration failed", "err", err)
			os.Exit(1)
		}
		jr = pj
		slog.Info("journal: connected to PostgreSQL")
	case cfg.Journal.SQLitePath != "":
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.SQLitePath), 0o755); err != nil {
			slog.Error("create journal directory", "err", err)
			os.Exit(1)
		}
		sj, err := journal.NewSQLiteJournal(cfg.Journal.SQLitePath)
		if err != nil {
			slog.Error("open sqlite journal", "path", cfg.Journal.SQLitePath, "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, func() { sj.Close() })
		jr = sj
		slog.Info("journal: using SQLite", "path", cfg.Journal.SQLitePath)
	default:
		slog.Warn("no journal database configured, ledger audit kept in memory")
		jr = journal.NewMemoryJournal()
	}

	// Front the journal with a Redis list of recent entries if configured.
	if cfg.Journal.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Journal.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		jr = journal.NewCachedJournal(jr, rdb, "", cfg.Journal.CacheSize)
		slog.Info("journal: Redis cache enabled")
	}

	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	// --- Game store ---
	ids, err := idgen.New(cfg.IDGen.Kind, cfg.IDGen.MachineID)
	if err != nil {
		slog.Error("id generator", "kind", cfg.IDGen.Kind, "err", err)
		os.Exit(1)
	}
	opts := []game.Option{game.WithIDGenerator(ids)}
	if cfg.Game.StrictFunds {
		opts = append(opts, game.WithStrictFunds())
	}

	sink := journal.NewSink(jr, cfg.Journal.QueueSize, logger)
	sink.OnDrop = func(n int) { metrics.JournalDroppedTotal.Add(float64(n)) }
	sink.OnError = func(error) { metrics.JournalErrorsTotal.Inc() }

	st := game.NewStore(game.NewReducer(opts...), model.NewGameState(),
		game.WithLogger(logger),
		game.WithHooks(metrics.StoreHook{}, sink),
	)

	// --- WebSocket hub ---
	wsHub := api.NewWSHub(st.State)
	st.AddHook(wsHub)

	// --- Background workers ---
	seed := cfg.Game.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	ticker := income.NewTicker(st, cfg.Game.IncomeInterval, logger)
	feed := market.NewFeed(st, market.NewGenerator(rand.NewPCG(seed, 1)), cfg.Game.MarketInterval, logger)

	ctx, stop := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, run := range []func(context.Context){sink.Run, ticker.Run, feed.Run, wsHub.Run} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(ctx)
		}()
	}

	// --- Services ---
	minStake, maxStake, err := cfg.Stakes()
	if err != nil {
		logger.Error("invalid casino stakes", "error", err)
		os.Exit(1)
	}
	limiter := casino.NewBetLimiter(minStake, maxStake)
	cas := casino.New(st, limiter, rand.NewPCG(seed, 2), logger)
	svc := api.NewService(st, shop.New(st), cas, jr, wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"clicker-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/api/v1", svc.Routes())

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("clicker-engine listening",
			"port", cfg.Server.Port,
			"strict_funds", cfg.Game.StrictFunds,
			"idgen", cfg.IDGen.Kind,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down clicker-engine...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}

	// Stop the workers; the sink flushes queued entries before returning.
	stop()
	wg.Wait()
	fmt.Println("clicker-engine stopped")
}
