// Package store defines the storage contract for routine items.
//
// Backends live in sub-packages (memory, redis, sqlite, postgres) and all
// satisfy Store. Every operation is atomic with respect to the others.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/routine/internal/domain"
)

// Store holds the canonical collection of routine items.
type Store interface {
	// List returns every item sorted by order, ties broken by insertion sequence.
	List(ctx context.Context) ([]domain.RoutineItem, error)

	// Get returns the item or a *domain.NotFoundError.
	Get(ctx context.Context, id string) (domain.RoutineItem, error)

	// Create assigns id, createdAt, clickCount=0 and, when in.Order is nil, max(order)+1 (0 on empty).
	Create(ctx context.Context, in domain.CreateInput) (domain.RoutineItem, error)

	// Update applies only the supplied fields or returns a *domain.NotFoundError.
	Update(ctx context.Context, id string, in domain.UpdateInput) (domain.RoutineItem, error)

	// Delete reports whether an item was removed.
	Delete(ctx context.Context, id string) (bool, error)

	// IncrementClick adds exactly one click and reports whether the item exists.
	// Unknown ids are not an error.
	IncrementClick(ctx context.Context, id string) (bool, error)

	// Reorder assigns order = position in ids, see domain.PlanReorder.
	Reorder(ctx context.Context, ids []string) error

	// Count returns the number of stored items.
	Count(ctx context.Context) (int, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Options are shared by every backend.
type Options struct {
	Now   func() time.Time // defaults to time.Now (UTC)
	NewID func() string    // defaults to a random UUID
}

// WithDefaults fills unset hooks.
func (o Options) WithDefaults() Options {
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}
