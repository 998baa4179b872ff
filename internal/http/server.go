// Package httpserver hosts the rating service the engine talks to. It speaks
// the wire dialects the deployed service accumulated over time: each rating
// family keeps its historical list shape and field spellings.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ezoooooooooo/rental-rating-engine/internal/config"
	"github.com/ezoooooooooo/rental-rating-engine/internal/repository"
	"github.com/ezoooooooooo/rental-rating-engine/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	store   *store.Store
	repo    *repository.Repository
	logger  *zap.Logger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, logger *zap.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:    cfg,
		store:  st,
		repo:   repo,
		logger: logger,
		router: r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	// Listing ratings: the oldest family, bare-array lists.
	s.router.Route("/ratings", func(r chi.Router) {
		r.Get("/listing/{listingID}", s.handleListItemRatings)
		r.Get("/listing/{listingID}/summary", s.handleRatingSummary)
		r.Post("/", s.handleCreateRating)
		r.Put("/{ratingID}", s.handleUpdateRating)
		r.Delete("/{ratingID}", s.handleDeleteRating)
	})

	// Owner ratings: {success,count,data} lists.
	s.router.Route("/owner-ratings", func(r chi.Router) {
		r.Get("/owner/{ownerID}", s.handleListOwnerRatings)
		r.Get("/owner/{ownerID}/summary", s.handleRatingSummary)
		r.Post("/", s.handleCreateRating)
		r.Put("/{ratingID}", s.handleUpdateRating)
		r.Delete("/{ratingID}", s.handleDeleteRating)
	})

	// Renter ratings: {data} lists.
	s.router.Route("/renter-ratings", func(r chi.Router) {
		r.Get("/renter/{renterID}", s.handleListRenterRatings)
		r.Get("/renter/{renterID}/summary", s.handleRatingSummary)
		r.Post("/", s.handleCreateRating)
		r.Put("/{ratingID}", s.handleUpdateRating)
		r.Delete("/{ratingID}", s.handleDeleteRating)
	})
}

// Start boots the HTTP server asynchronously.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
