// Package api exposes the record service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pbaille/fine/internal/aggregate"
	"github.com/pbaille/fine/internal/api/middleware"
	"github.com/pbaille/fine/internal/config"
	"github.com/pbaille/fine/internal/domain"
	"github.com/pbaille/fine/internal/service"
)

// recordService is the subset of *service.Service the handlers need
type recordService interface {
	Ping(ctx context.Context) error

	ListEvents(ctx context.Context) []domain.Event
	CreateEvent(ctx context.Context, in service.CreateEventInput) (domain.Event, error)
	Calendar(ctx context.Context, year int, month time.Month) aggregate.MonthView

	ListPostSummaries(ctx context.Context, category string) []domain.PostSummary
	GetPost(ctx context.Context, id string) (domain.CommunityPost, error)
	CreatePost(ctx context.Context, in service.CreatePostInput) (domain.CommunityPost, error)
	AddComment(ctx context.Context, postID string, in service.CreateCommentInput) (domain.Comment, error)
	ProfileStats(ctx context.Context, author string) (domain.ProfileStats, error)

	Allocation(ctx context.Context) []aggregate.CategoryTotal
	SetAllocationValues(ctx context.Context, values map[string]int) ([]aggregate.CategoryTotal, error)
}

// Options configures a Server
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORS            config.CORSConfig
	Version         string
}

// OptionsFromConfig maps application config onto server options
func OptionsFromConfig(cfg *config.Config, version string) Options {
	return Options{
		Addr:            cfg.Server.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORS:            cfg.CORS,
		Version:         version,
	}
}

// Server handles HTTP requests for the record service
type Server struct {
	svc  recordService
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

// New creates a new API server
func New(svc recordService, opts Options, logger *slog.Logger) *Server {
	return &Server{
		svc:  svc,
		opts: opts,
		log:  logger.With(slog.String("component", "api")),
		now:  time.Now,
	}
}

// Handler returns the routed handler wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Calendar
	mux.HandleFunc("GET /events", s.listEvents)
	mux.HandleFunc("POST /events", s.createEvent)
	mux.HandleFunc("GET /calendar", s.calendar)

	// Community
	mux.HandleFunc("GET /community", s.listPosts)
	mux.HandleFunc("POST /community", s.createPost)
	mux.HandleFunc("GET /community/{id}", s.getPost)
	mux.HandleFunc("POST /community/{id}/comments", s.addComment)
	mux.HandleFunc("GET /profile/stats", s.profileStats)

	// Asset allocation
	mux.HandleFunc("GET /allocation", s.getAllocation)
	mux.HandleFunc("PUT /allocation", s.setAllocation)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return middleware.Chain(
		middleware.Recovery(s.log),
		middleware.RequestID,
		middleware.Logger(s.log),
		middleware.CORS(s.opts.CORS),
	)(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("starting server", slog.String("addr", s.opts.Addr), slog.String("version", s.opts.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
