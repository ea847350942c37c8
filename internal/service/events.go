package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pbaille/fine/internal/aggregate"
	"github.com/pbaille/fine/internal/domain"
)

// CreateEventInput is the payload for new calendar events
type CreateEventInput struct {
	Date  string `json:"date"`
	Title string `json:"title"`
}

func (in CreateEventInput) validate() error {
	var errs []domain.FieldError
	if strings.TrimSpace(in.Date) == "" {
		errs = append(errs, domain.FieldError{Field: "date", Message: "is required"})
	} else if _, err := time.Parse(domain.DateLayout, strings.TrimSpace(in.Date)); err != nil {
		errs = append(errs, domain.FieldError{Field: "date", Message: "must be YYYY-MM-DD"})
	}
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "is required"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ListEvents returns the full event collection in stored order
func (s *Service) ListEvents(ctx context.Context) []domain.Event {
	return s.events.ReadAll(ctx)
}

// CreateEvent validates, appends and persists a new event
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	if err := in.validate(); err != nil {
		return domain.Event{}, err
	}

	event := domain.Event{
		Date:  strings.TrimSpace(in.Date),
		Title: strings.TrimSpace(in.Title),
	}

	err := s.events.Update(ctx, func(events []domain.Event) ([]domain.Event, error) {
		event.ID = s.uniqueID(func(id string) bool {
			for _, e := range events {
				if e.ID == id {
					return true
				}
			}
			return false
		})
		return append(events, event), nil
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("create event: %w", err)
	}

	s.log.InfoContext(ctx, "event created", slog.String("id", event.ID), slog.String("date", event.Date))
	return event, nil
}

// Calendar lays out one month with its events attached to each day
func (s *Service) Calendar(ctx context.Context, year int, month time.Month) aggregate.MonthView {
	return aggregate.BuildMonth(year, month, s.ListEvents(ctx))
}

// resolvePrefix finds the single id in ids that equals or starts with prefix
func resolvePrefix(kind string, ids []string, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", domain.NewValidationError("id", "is required")
	}

	var matches []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s %s: %w", kind, prefix, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", domain.NewValidationError("id", fmt.Sprintf("prefix %q matches %d %ss", prefix, len(matches), kind))
	}
}

// uniqueID draws ids until taken reports false
func (s *Service) uniqueID(taken func(string) bool) string {
	for {
		id := s.newID()
		if !taken(id) {
			return id
		}
	}
}
