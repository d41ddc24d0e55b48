package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/store"
)

// maxTxRetries bounds optimistic transaction retries on WATCH conflicts.
const maxTxRetries = 50

// record is the JSON layout of an item in Redis.
type record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description *string   `json:"description"`
	Order       int       `json:"order"`
	ClickCount  int64     `json:"clickCount"`
	CreatedAt   time.Time `json:"createdAt"`
	Seq         int64     `json:"seq"`
}

func toRecord(it domain.RoutineItem) record {
	return record{
		ID:          it.ID,
		Name:        it.Name,
		URL:         it.URL,
		Description: it.Description,
		Order:       it.Order,
		ClickCount:  it.ClickCount,
		CreatedAt:   it.CreatedAt,
		Seq:         it.Seq,
	}
}

func (r record) item() domain.RoutineItem {
	return domain.RoutineItem{
		ID:          r.ID,
		Name:        r.Name,
		URL:         r.URL,
		Description: r.Description,
		Order:       r.Order,
		ClickCount:  r.ClickCount,
		CreatedAt:   r.CreatedAt,
		Seq:         r.Seq,
	}
}

// Store handles Redis operations for routine items.
//
// Read-modify-write operations run inside WATCH/MULTI transactions and are
// retried when another writer touches the watched keys.
type Store struct {
	client *redis.Client
	opts   store.Options
}

var _ store.Store = (*Store)(nil)

// NewStore creates a new Redis store. The store takes ownership of client.
func NewStore(client *redis.Client, opts store.Options) *Store {
	return &Store{
		client: client,
		opts:   opts.WithDefaults(),
	}
}

// List retrieves all items sorted by order
func (s *Store) List(ctx context.Context) ([]domain.RoutineItem, error) {
	ids, err := s.client.SMembers(ctx, AllItemsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get item IDs: %w", err)
	}
	items, err := loadItems(ctx, s.client, ids)
	if err != nil {
		return nil, err
	}
	domain.SortItems(items)
	return items, nil
}

// Get retrieves an item by ID
func (s *Store) Get(ctx context.Context, id string) (domain.RoutineItem, error) {
	return loadItem(ctx, s.client, id)
}

// Create stores a new item
func (s *Store) Create(ctx context.Context, in domain.CreateInput) (domain.RoutineItem, error) {
	var created domain.RoutineItem

	err := s.withRetry(ctx, func(tx *redis.Tx) error {
		ids, err := tx.SMembers(ctx, AllItemsKey()).Result()
		if err != nil {
			return fmt.Errorf("failed to get item IDs: %w", err)
		}

		var order int
		if in.Order != nil {
			order = *in.Order
		} else {
			existing, err := loadItems(ctx, tx, ids)
			if err != nil {
				return err
			}
			order = domain.NextOrder(existing)
		}

		id, err := s.freshID(ctx, tx)
		if err != nil {
			return err
		}

		seq, err := tx.Incr(ctx, KeyItemSeq).Result()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}

		it := domain.NewItem(id, in, order, seq, s.opts.Now())
		data, err := json.Marshal(toRecord(it))
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ItemKey(id), data, 0)
			pipe.SAdd(ctx, AllItemsKey(), id)
			return nil
		})
		if err != nil {
			return err
		}
		created = it
		return nil
	}, AllItemsKey())
	if err != nil {
		return domain.RoutineItem{}, fmt.Errorf("failed to create item: %w", err)
	}
	return created, nil
}

// Update applies a partial update to an item
func (s *Store) Update(ctx context.Context, id string, in domain.UpdateInput) (domain.RoutineItem, error) {
	var updated domain.RoutineItem

	err := s.withRetry(ctx, func(tx *redis.Tx) error {
		existing, err := loadItem(ctx, tx, id)
		if err != nil {
			return err
		}
		it := domain.ApplyUpdate(existing, in)
		data, err := json.Marshal(toRecord(it))
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ItemKey(id), data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = it
		return nil
	}, ItemKey(id))
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.RoutineItem{}, err
		}
		return domain.RoutineItem{}, fmt.Errorf("failed to update item: %w", err)
	}
	return updated, nil
}

// Delete removes an item from Redis
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, ItemKey(id))
		pipe.SRem(ctx, AllItemsKey(), id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete item: %w", err)
	}
	return del.Val() > 0, nil
}

// IncrementClick increments the click counter of an item
func (s *Store) IncrementClick(ctx context.Context, id string) (bool, error) {
	err := s.withRetry(ctx, func(tx *redis.Tx) error {
		it, err := loadItem(ctx, tx, id)
		if err != nil {
			return err
		}
		it.ClickCount++
		data, err := json.Marshal(toRecord(it))
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ItemKey(id), data, 0)
			return nil
		})
		return err
	}, ItemKey(id))
	if err != nil {
		if domain.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to increment click count: %w", err)
	}
	return true, nil
}

// Reorder reassigns order values for all items
func (s *Store) Reorder(ctx context.Context, ids []string) error {
	err := s.withRetry(ctx, func(tx *redis.Tx) error {
		members, err := tx.SMembers(ctx, AllItemsKey()).Result()
		if err != nil {
			return fmt.Errorf("failed to get item IDs: %w", err)
		}
		if len(members) == 0 {
			return nil
		}
		if err := tx.Watch(ctx, ItemKeys(members)...).Err(); err != nil {
			return fmt.Errorf("failed to watch items: %w", err)
		}

		items, err := loadItems(ctx, tx, members)
		if err != nil {
			return err
		}
		plan := domain.PlanReorder(items, ids)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, it := range items {
				order := plan[it.ID]
				if order == it.Order {
					continue
				}
				it.Order = order
				data, err := json.Marshal(toRecord(it))
				if err != nil {
					return fmt.Errorf("failed to marshal item %s: %w", it.ID, err)
				}
				pipe.Set(ctx, ItemKey(it.ID), data, 0)
			}
			return nil
		})
		return err
	}, AllItemsKey())
	if err != nil {
		return fmt.Errorf("failed to reorder items: %w", err)
	}
	return nil
}

// Count returns the number of stored items
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, AllItemsKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return int(n), nil
}

// Ping checks the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

// withRetry runs fn in a WATCH transaction, retrying on optimistic lock failure.
func (s *Store) withRetry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	backoff := time.Millisecond
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 20*time.Millisecond {
			backoff *= 2
		}
	}
	return fmt.Errorf("transaction aborted after %d conflicting attempts", maxTxRetries)
}

// freshID returns a generated ID that no stored item uses.
func (s *Store) freshID(ctx context.Context, tx *redis.Tx) (string, error) {
	for {
		id := s.opts.NewID()
		n, err := tx.Exists(ctx, ItemKey(id)).Result()
		if err != nil {
			return "", fmt.Errorf("failed to check item id: %w", err)
		}
		if n == 0 {
			return id, nil
		}
	}
}

// reader is the subset of commands shared by *redis.Client and *redis.Tx.
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// loadItem reads and decodes one item.
func loadItem(ctx context.Context, c reader, id string) (domain.RoutineItem, error) {
	data, err := c.Get(ctx, ItemKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.RoutineItem{}, domain.NewNotFound(id)
		}
		return domain.RoutineItem{}, fmt.Errorf("failed to get item: %w", err)
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.RoutineItem{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return r.item(), nil
}

// loadItems reads many items in one round trip. Dangling IDs are skipped.
func loadItems(ctx context.Context, c reader, ids []string) ([]domain.RoutineItem, error) {
	if len(ids) == 0 {
		return []domain.RoutineItem{}, nil
	}

	values, err := c.MGet(ctx, ItemKeys(ids)...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	items := make([]domain.RoutineItem, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var r record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item %s: %w", ids[i], err)
		}
		items = append(items, r.item())
	}
	return items, nil
}
