// Package devserver is a self-hostable implementation of the study API the
// client talks to. It exists for local use and end-to-end tests.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"studyhub/internal/platform/id"
)

type Options struct {
	Store  *Store
	Prefix string
	Logger *slog.Logger
	// Tokens defaults to random hex.
	Tokens id.Generator
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// AuthRate and AuthBurst bound login and registration per IP.
	AuthRate  rate.Limit
	AuthBurst int
	Registry  *prometheus.Registry
}

// NewHandler builds the API router. /metrics is served outside the prefix.
func NewHandler(opts Options) http.Handler {
	if opts.Tokens == nil {
		opts.Tokens = id.RandomHex{}
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.AuthRate == 0 {
		opts.AuthRate = rate.Every(6 * time.Second)
	}
	if opts.AuthBurst == 0 {
		opts.AuthBurst = 10
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	prefix := "/" + strings.Trim(opts.Prefix, "/")

	h := &handlers{store: opts.Store, tokens: opts.Tokens, bcryptCost: opts.BcryptCost, logger: opts.Logger}
	metrics := NewMetrics(opts.Registry)
	limiter := newIPLimiter(opts.AuthRate, opts.AuthBurst)

	r := chi.NewRouter()
	r.Use(recoverer(opts.Logger))
	r.Use(observe(opts.Logger, metrics))

	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusOK, "ok")
	})

	r.Route(prefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter.middleware(opts.Logger))
			r.Post("/register", h.register)
			r.Post("/login", h.login)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireToken(opts.Store))

			// Flat patterns: {userId} and {subjectId} share a tree node and
			// a nested Route there would shadow the GET.
			r.Route("/subject-topics", func(r chi.Router) {
				r.Post("/", h.createSubject)
				r.Get("/{userId}", h.listSubjects)
				r.Delete("/{subjectId}", h.deleteSubject)
				r.Patch("/{subjectId}/color", h.setSubjectColor)
				r.Post("/{subjectId}/sections", h.addSection)
				r.Delete("/{subjectId}/sections/{sectionId}", h.deleteSection)
				r.Post("/{subjectId}/sections/{sectionId}/topics", h.addTopic)
				r.Delete("/{subjectId}/sections/{sectionId}/topics/{topicId}", h.deleteTopic)
			})

			r.Route("/weekly-goals", func(r chi.Router) {
				r.Post("/", h.createGoal)
				r.Get("/{userId}", h.listGoals)
				r.Put("/{goalId}", h.updateGoal)
				r.Delete("/{goalId}", h.deleteGoal)
				r.Post("/{goalId}/topics", h.addGoalTopic)
				r.Put("/{goalId}/topics/{topicId}/toggle", h.toggleGoalTopic)
				r.Delete("/{goalId}/topics/{topicId}", h.deleteGoalTopic)
			})
		})
	})
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
