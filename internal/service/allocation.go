package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pbaille/fine/internal/aggregate"
	"github.com/pbaille/fine/internal/domain"
)

// AllocationValues returns the stored weight per item id. Items that were
// never set are absent and count as domain.DefaultAllocationValue.
func (s *Service) AllocationValues(ctx context.Context) map[string]int {
	records := s.allocations.ReadAll(ctx)
	values := make(map[string]int, len(records))
	for _, r := range records {
		values[r.ItemID] = r.Value
	}
	return values
}

// Allocation aggregates the stored weights over the catalog
func (s *Service) Allocation(ctx context.Context) []aggregate.CategoryTotal {
	return s.catalog.Allocate(s.AllocationValues(ctx))
}

// Catalog returns the allocation catalog
func (s *Service) Catalog() aggregate.Catalog {
	return s.catalog
}

// SetAllocationValues merges values into the stored weights and returns the
// new aggregation. Every id must be a catalog item and every value must be
// within the allowed range; otherwise nothing is stored.
func (s *Service) SetAllocationValues(ctx context.Context, values map[string]int) ([]aggregate.CategoryTotal, error) {
	if len(values) == 0 {
		return nil, domain.NewValidationError("values", "at least one value is required")
	}

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []domain.FieldError
	for _, id := range ids {
		if _, ok := s.catalog.Item(id); !ok {
			errs = append(errs, domain.FieldError{Field: "values." + id, Message: "unknown item"})
			continue
		}
		if v := values[id]; v < domain.MinAllocationValue || v > domain.MaxAllocationValue {
			errs = append(errs, domain.FieldError{
				Field:   "values." + id,
				Message: fmt.Sprintf("must be between %d and %d", domain.MinAllocationValue, domain.MaxAllocationValue),
			})
		}
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}

	err := s.allocations.Update(ctx, func(records []domain.AllocationValue) ([]domain.AllocationValue, error) {
		pos := make(map[string]int, len(records))
		for i, r := range records {
			pos[r.ItemID] = i
		}
		for _, id := range ids {
			if i, ok := pos[id]; ok {
				records[i].Value = values[id]
				continue
			}
			records = append(records, domain.AllocationValue{ItemID: id, Value: values[id]})
		}
		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("set allocation values: %w", err)
	}

	s.log.InfoContext(ctx, "allocation updated", slog.Int("items", len(ids)))
	return s.Allocation(ctx), nil
}
