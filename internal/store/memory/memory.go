package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/store"
)

// Store keeps routine items in a process-local map.
// A single mutex serializes every operation.
type Store struct {
	mu    sync.RWMutex
	opts  store.Options
	items map[string]domain.RoutineItem // ID -> item
	seq   int64                         // last insertion sequence handed out
}

var _ store.Store = (*Store)(nil)

// New creates an empty memory store
func New(opts store.Options) *Store {
	return &Store{
		opts:  opts.WithDefaults(),
		items: make(map[string]domain.RoutineItem),
	}
}

// List returns a sorted snapshot of all items
func (s *Store) List(_ context.Context) ([]domain.RoutineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedLocked(), nil
}

// Get retrieves an item by ID
func (s *Store) Get(_ context.Context, id string) (domain.RoutineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return domain.RoutineItem{}, domain.NewNotFound(id)
	}
	return it.Clone(), nil
}

// Create adds a new item
func (s *Store) Create(_ context.Context, in domain.CreateInput) (domain.RoutineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var order int
	if in.Order != nil {
		order = *in.Order
	} else {
		order = domain.NextOrder(s.valuesLocked())
	}

	id := s.opts.NewID()
	for _, taken := s.items[id]; taken; _, taken = s.items[id] {
		id = s.opts.NewID()
	}

	s.seq++
	it := domain.NewItem(id, in, order, s.seq, s.opts.Now())
	s.items[id] = it
	return it.Clone(), nil
}

// Update applies a partial update
func (s *Store) Update(_ context.Context, id string, in domain.UpdateInput) (domain.RoutineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[id]
	if !ok {
		return domain.RoutineItem{}, domain.NewNotFound(id)
	}

	updated := domain.ApplyUpdate(existing, in)
	s.items[id] = updated
	return updated.Clone(), nil
}

// Delete removes an item
func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

// IncrementClick increments the click counter of an item
func (s *Store) IncrementClick(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return false, nil
	}
	it.ClickCount++
	s.items[id] = it
	return true, nil
}

// Reorder reassigns order values
func (s *Store) Reorder(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := domain.PlanReorder(s.valuesLocked(), ids)
	for id, order := range plan {
		it := s.items[id]
		it.Order = order
		s.items[id] = it
	}
	return nil
}

// Count returns the number of items
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items), nil
}

// Ping always succeeds
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op
func (s *Store) Close() error { return nil }

func (s *Store) valuesLocked() []domain.RoutineItem {
	out := make([]domain.RoutineItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.Clone())
	}
	return out
}

func (s *Store) sortedLocked() []domain.RoutineItem {
	out := s.valuesLocked()
	domain.SortItems(out)
	return out
}
