// Package api exposes the image and user services over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/digkill/AstroImages/internal/metrics"
	"github.com/digkill/AstroImages/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	opts   Options
	log    *slog.Logger
	images *service.ImageService
	users  *service.UserService
	store  Pinger
	router *chi.Mux
}

func NewServer(opts Options, log *slog.Logger, images *service.ImageService, users *service.UserService, store Pinger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.Recoverer)

	s := &Server{
		opts:   opts,
		log:    log,
		images: images,
		users:  users,
		store:  store,
		router: r,
	}

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	// Not request-logged.
	r.Get("/images/view/{imageId}", s.handleViewImage)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(logged chi.Router) {
		logged.Use(requestLogger(log))
		logged.Get("/health", s.handleHealth)
		logged.Post("/images", s.handleCreateImage)
		logged.Get("/images/user/{userId}", s.handleListUserImages)
		logged.Post("/users", s.handleUpsertUser)
		logged.Get("/users/{userId}", s.handleGetUser)
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("api shutdown error", "err", err)
		}
	}()

	s.log.Info("api listening", "addr", s.opts.Addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.Error("health check failed", "err", err)
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
