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

	"golang.org/x/text/language"

	"github.com/p-n-ai/pai-course/internal/api"
	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/enrollment"
	"github.com/p-n-ai/pai-course/internal/events"
	"github.com/p-n-ai/pai-course/internal/notify"
	"github.com/p-n-ai/pai-course/internal/platform/cache"
	"github.com/p-n-ai/pai-course/internal/platform/config"
	"github.com/p-n-ai/pai-course/internal/platform/database"
	"github.com/p-n-ai/pai-course/internal/progress"
	"github.com/p-n-ai/pai-course/internal/quiz"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     app.mux,
		ReadTimeout: 10 * time.Second,
		// WebSocket streams stay open, so no WriteTimeout.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "storage", cfg.StorageMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// app holds the wired service and the resources to release on exit.
type app struct {
	mux     *http.ServeMux
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// readinessCheck reports whether a dependency is reachable.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	catalog, err := course.NewCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	var (
		enrollments enrollment.Store = enrollment.NewMemoryStore()
		quizzes     quiz.Store       = quiz.NewMemoryStore()
		eventLog    events.Logger    = events.NopLogger{}
		checks      []readinessCheck
	)

	if cfg.StorageMode == config.StoragePostgres {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		checks = append(checks, readinessCheck{name: "database", check: db.HealthCheck})

		pgEnrollments, err := enrollment.NewPostgresStore(db.Pool)
		if err != nil {
			a.close()
			return nil, err
		}
		pgQuizzes, err := quiz.NewPostgresStore(db.Pool)
		if err != nil {
			a.close()
			return nil, err
		}
		enrollments = pgEnrollments
		quizzes = pgQuizzes
		eventLog = events.NewPostgresLogger(db.Pool)
	}

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		checks = append(checks, readinessCheck{name: "cache", check: c.HealthCheck})
		enrollments = enrollment.NewCachedStore(enrollments, c, cfg.Cache.TTL)
	}

	for lectureID, quizIDs := range catalog.QuizBindings() {
		if err := quizzes.Bind(ctx, lectureID, quizIDs...); err != nil {
			a.close()
			return nil, fmt.Errorf("binding quizzes for lecture %s: %w", lectureID, err)
		}
	}

	gateway := notify.NewGateway(notify.Match(language.Make(cfg.Language)))
	ws := notify.NewWebSocketChannel()
	gateway.Register("websocket", ws)
	gateway.Register("log", notify.LogChannel{})

	sessions := progress.NewManager(progress.ManagerConfig{
		Outlines:       catalog,
		Enrollments:    enrollments,
		Quizzes:        quizzes,
		Navigator:      gateway,
		Notifier:       gateway,
		Events:         eventLog,
		AdvanceDelay:   cfg.Progress.AdvanceDelay,
		PersistTimeout: cfg.Progress.PersistTimeout,
		SessionIdle:    cfg.Progress.SessionIdle,
	})
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go sessions.Run(sweepCtx)
	a.closers = append(a.closers, stopSweep, sessions.Shutdown)

	server := api.NewServer(api.Deps{
		Catalog:     catalog,
		Enrollments: enrollments,
		Quizzes:     quizzes,
		Sessions:    sessions,
		Gateway:     gateway,
		WebSocket:   ws,
	})

	a.mux = newMux(checks...)
	server.Register(a.mux)
	return a, nil
}

// newMux creates the HTTP router with health check endpoints.
func newMux(checks ...readinessCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz(checks))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReadyz(checks []readinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				slog.Warn("readiness check failed", "check", c.name, "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, `{"status":"unavailable","check":%q}`, c.name)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
