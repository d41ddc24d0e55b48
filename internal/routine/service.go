// Package routine is the application service in front of a store.Store.
//
// It normalizes and validates caller input, delegates to the store, derives
// search results and stats, and reports every operation to a Recorder.
package routine

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/logger"
	"github.com/MrSnakeDoc/routine/internal/metrics"
	"github.com/MrSnakeDoc/routine/internal/store"
)

// Operation names used for metrics and logs.
const (
	OpList    = "list"
	OpGet     = "get"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpClick   = "click"
	OpReorder = "reorder"
	OpSearch  = "search"
	OpStats   = "stats"
)

// Recorder receives operation outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordItemOp(op, result string)
	RecordClick()
}

type nopRecorder struct{}

func (nopRecorder) RecordItemOp(string, string) {}
func (nopRecorder) RecordClick()                {}

// Service implements the item and query operations.
type Service struct {
	store    store.Store
	log      logger.Logger
	recorder Recorder
}

// NewService builds a Service. rec may be nil.
func NewService(st store.Store, log logger.Logger, rec Recorder) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{store: st, log: log.With(logger.String("component", "routine")), recorder: rec}
}

// List returns every item sorted by order.
func (s *Service) List(ctx context.Context) ([]domain.RoutineItem, error) {
	items, err := s.store.List(ctx)
	s.record(OpList, err)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Get returns one item or a not-found error.
func (s *Service) Get(ctx context.Context, id string) (domain.RoutineItem, error) {
	it, err := s.store.Get(ctx, id)
	s.record(OpGet, err)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.RoutineItem{}, err
		}
		return domain.RoutineItem{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return it, nil
}

// Create validates in and stores a new item.
func (s *Service) Create(ctx context.Context, in domain.CreateInput) (domain.RoutineItem, error) {
	in = in.Normalize()
	if err := domain.ValidateCreate(in); err != nil {
		s.record(OpCreate, err)
		return domain.RoutineItem{}, err
	}

	it, err := s.store.Create(ctx, in)
	s.record(OpCreate, err)
	if err != nil {
		return domain.RoutineItem{}, fmt.Errorf("create item: %w", err)
	}

	s.log.Debug("item created",
		logger.String("id", it.ID),
		logger.String("name", it.Name),
		logger.Int("order", it.Order))
	return it, nil
}

// Update validates the supplied fields and applies them.
func (s *Service) Update(ctx context.Context, id string, in domain.UpdateInput) (domain.RoutineItem, error) {
	in = in.Normalize()
	if err := domain.ValidateUpdate(in); err != nil {
		s.record(OpUpdate, err)
		return domain.RoutineItem{}, err
	}

	it, err := s.store.Update(ctx, id, in)
	s.record(OpUpdate, err)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.RoutineItem{}, err
		}
		return domain.RoutineItem{}, fmt.Errorf("update item %s: %w", id, err)
	}
	return it, nil
}

// Delete removes an item, returning a not-found error when nothing was removed.
func (s *Service) Delete(ctx context.Context, id string) error {
	removed, err := s.store.Delete(ctx, id)
	if err == nil && !removed {
		err = domain.NewNotFound(id)
	}
	s.record(OpDelete, err)
	if err != nil {
		if domain.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

// Click records one activation. Unknown ids are not an error and are not counted.
func (s *Service) Click(ctx context.Context, id string) error {
	found, err := s.store.IncrementClick(ctx, id)
	if err == nil && !found {
		s.record(OpClick, domain.NewNotFound(id))
		return nil
	}
	s.record(OpClick, err)
	if err != nil {
		return fmt.Errorf("record click %s: %w", id, err)
	}
	s.recorder.RecordClick()
	return nil
}

// Reorder sets order = position for the given ids.
func (s *Service) Reorder(ctx context.Context, ids []string) error {
	err := s.store.Reorder(ctx, ids)
	s.record(OpReorder, err)
	if err != nil {
		return fmt.Errorf("reorder items: %w", err)
	}
	return nil
}

// Search returns items whose name or description contains term, case-insensitively.
// A blank term returns every item.
func (s *Service) Search(ctx context.Context, term string) ([]domain.RoutineItem, error) {
	items, err := s.store.List(ctx)
	s.record(OpSearch, err)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return domain.FilterByTerm(items, term), nil
}

// Stats derives totals, the most used and the last added item.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	items, err := s.store.List(ctx)
	s.record(OpStats, err)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	return domain.ComputeStats(items), nil
}

// Count returns the number of stored items.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Ping checks the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) record(op string, err error) {
	_, invalid := domain.AsValidation(err)
	switch {
	case err == nil:
		s.recorder.RecordItemOp(op, metrics.ResultOK)
	case invalid:
		s.recorder.RecordItemOp(op, metrics.ResultInvalid)
	case domain.IsNotFound(err):
		s.recorder.RecordItemOp(op, metrics.ResultNotFound)
	default:
		s.recorder.RecordItemOp(op, metrics.ResultError)
		s.log.Error("item operation failed",
			logger.String("op", op),
			logger.Error(err))
	}
}
