// Package service mediates every read and write of the event, community and
// allocation collections.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pbaille/fine/internal/aggregate"
	"github.com/pbaille/fine/internal/domain"
	"github.com/pbaille/fine/internal/store"
)

// Collection names. They double as storage unit names.
const (
	EventsCollection     = "calendar"
	CommunityCollection  = "community"
	AllocationCollection = "allocations"
)

// Service is the record service
type Service struct {
	backend     store.Backend
	events      *store.Collection[domain.Event]
	posts       *store.Collection[domain.CommunityPost]
	allocations *store.Collection[domain.AllocationValue]
	catalog     aggregate.Catalog
	log         *slog.Logger

	now   func() time.Time
	newID func() string
}

// Option customizes a Service
type Option func(*Service)

// WithClock overrides the time source used for createdAt stamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides record id generation
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithCatalog overrides the allocation catalog
func WithCatalog(c aggregate.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// New creates a Service over backend
func New(backend store.Backend, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		backend:     backend,
		events:      store.NewCollection[domain.Event](EventsCollection, backend, logger),
		posts:       store.NewCollection[domain.CommunityPost](CommunityCollection, backend, logger),
		allocations: store.NewCollection[domain.AllocationValue](AllocationCollection, backend, logger),
		catalog:     aggregate.DefaultCatalog(),
		log:         logger.With(slog.String("component", "service")),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping reports whether the backend is reachable
func (s *Service) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
