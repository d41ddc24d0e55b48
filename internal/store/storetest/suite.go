// Package storetest is a conformance suite every store backend must pass.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/store"
)

// Factory returns an empty store built with opts. Cleanup is the factory's job (t.Cleanup).
type Factory func(t *testing.T, opts store.Options) store.Store

// Clock is a deterministic time source advancing one second per call.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
}

// Now returns the next tick.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func ids(items []domain.RoutineItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// Run executes the whole suite against newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAssignsDefaults", func(t *testing.T) { testCreateAssignsDefaults(t, newStore) })
	t.Run("ListSortedAndStable", func(t *testing.T) { testListSortedAndStable(t, newStore) })
	t.Run("GetNotFound", func(t *testing.T) { testGetNotFound(t, newStore) })
	t.Run("UpdatePartial", func(t *testing.T) { testUpdatePartial(t, newStore) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDeleteIdempotent(t, newStore) })
	t.Run("IncrementClick", func(t *testing.T) { testIncrementClick(t, newStore) })
	t.Run("Reorder", func(t *testing.T) { testReorder(t, newStore) })
	t.Run("DescriptionAbsentVsEmpty", func(t *testing.T) { testDescriptionAbsentVsEmpty(t, newStore) })
	t.Run("ConcurrentIncrement", func(t *testing.T) { testConcurrentIncrement(t, newStore) })
}

func testCreateAssignsDefaults(t *testing.T, newStore Factory) {
	ctx := context.Background()
	clock := NewClock()
	s := newStore(t, store.Options{Now: clock.Now})

	first, err := s.Create(ctx, domain.CreateInput{Name: "Gmail", URL: "https://gmail.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 0, first.Order, "first item on an empty store gets order 0")
	assert.Zero(t, first.ClickCount)
	assert.True(t, first.CreatedAt.Equal(time.Date(2026, 5, 1, 8, 0, 1, 0, time.UTC)), "createdAt = %v", first.CreatedAt)

	second, err := s.Create(ctx, domain.CreateInput{Name: "GitHub", URL: "https://github.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Order)
	assert.NotEqual(t, first.ID, second.ID)

	explicit, err := s.Create(ctx, domain.CreateInput{Name: "Slack", URL: "https://slack.com", Order: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, 10, explicit.Order)

	next, err := s.Create(ctx, domain.CreateInput{Name: "Notion", URL: "https://notion.so"})
	require.NoError(t, err)
	assert.Equal(t, 11, next.Order, "omitted order is max(existing)+1")

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Name, got.Name)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))
}

func testListSortedAndStable(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, store.Options{Now: NewClock().Now})

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	c, err := s.Create(ctx, domain.CreateInput{Name: "c", URL: "https://c.example", Order: intPtr(5)})
	require.NoError(t, err)
	a, err := s.Create(ctx, domain.CreateInput{Name: "a", URL: "https://a.example", Order: intPtr(1)})
	require.NoError(t, err)
	b, err := s.Create(ctx, domain.CreateInput{Name: "b", URL: "https://b.example", Order: intPtr(1)})
	require.NoError(t, err)

	first, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, ids(first), "ties keep insertion order")

	second, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))
}

func testGetNotFound(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, store.Options{})

	_, err := s.Get(ctx, "does-not-exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Update(ctx, "does-not-exist", domain.UpdateInput{Name: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testUpdatePartial(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, store.Options{Now: NewClock().Now})

	orig, err := s.Create(ctx, domain.CreateInput{
		Name:        "Gmail",
		URL:         "https://gmail.com",
		Description: strPtr("Email management"),
	})
	require.NoError(t, err)
	_, err = s.IncrementClick(ctx, orig.ID)
	require.NoError(t, err)

	updated, err := s.Update(ctx, orig.ID, domain.UpdateInput{Name: strPtr("Inbox")})
	require.NoError(t, err)
	assert.Equal(t, "Inbox", updated.Name)
	assert.Equal(t, orig.URL, updated.URL)
	assert.Equal(t, "Email management", updated.DescriptionOrEmpty())
	assert.Equal(t, orig.ID, updated.ID)
	assert.True(t, orig.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, int64(1), updated.ClickCount)

	cleared, err := s.Update(ctx, orig.ID, domain.UpdateInput{Description: domain.NullString(), Order: intPtr(7)})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.Equal(t, 7, cleared.Order)

	got, err := s.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "Inbox", got.Name)
	assert.Nil(t, got.Description)
	assert.Equal(t, 7, got.Order)
}

func testDeleteIdempotent(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, store.Options{})

	it, err := s.Create(ctx, domain.CreateInput{Name: "Slack", URL: "https://slack.com"})
	require.NoError(t, err)

	removed, err := s.Delete(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.Get(ctx, it.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	removed, err = s.Delete(ctx, it.ID)
	require.NoError(t, err)
	assert.False(t, removed, "second delete reports false, not an error")

	next, err := s.Create(ctx, domain.CreateInput{Name: "Slack", URL: "https://slack.com"})
	require.NoError(t, err)
	assert.NotEqual(t, it.ID, next.ID, "ids are never reused")
}

func testIncrementClick(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, store.Options{})

	a, err := s.Create(ctx, domain.CreateInput{Name: "a", URL: "https://a.example"})
	require.NoError(t, err)
	b, err := s.Create(ctx, domain.CreateInput{Name: "b", URL: "https://b.example"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		found, err := s.IncrementClick(ctx, a.ID)
		require.NoError(t, err)
		require.True(t, found)
	}
	found, err := s.IncrementClick(ctx, "unknown")
	require.NoError(t, err, "unknown ids are ignored")
	assert.False(t, found)

	gotA, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), gotA.ClickCount)

	gotB, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, gotB.ClickCount)
}

func testReorder(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, store.Options{})

	a, err := s.Create(ctx, domain.CreateInput{Name: "a", URL: "https://a.example"})
	require.NoError(t, err)
	b, err := s.Create(ctx, domain.CreateInput{Name: "b", URL: "https://b.example"})
	require.NoError(t, err)
	c, err := s.Create(ctx, domain.CreateInput{Name: "c", URL: "https://c.example"})
	require.NoError(t, err)

	require.NoError(t, s.Reorder(ctx, []string{b.ID, a.ID, c.ID}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID, c.ID}, ids(list))
	for i, it := range list {
		assert.Equal(t, i, it.Order)
	}

	// unknown ids are skipped, omitted ids are appended
	require.NoError(t, s.Reorder(ctx, []string{"ghost", c.ID}))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(list))
	assert.Equal(t, []int{1, 2, 3}, []int{list[0].Order, list[1].Order, list[2].Order})
}

func testDescriptionAbsentVsEmpty(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, store.Options{})

	absent, err := s.Create(ctx, domain.CreateInput{Name: "a", URL: "https://a.example"})
	require.NoError(t, err)
	empty, err := s.Create(ctx, domain.CreateInput{Name: "b", URL: "https://b.example", Description: strPtr("")})
	require.NoError(t, err)

	gotAbsent, err := s.Get(ctx, absent.ID)
	require.NoError(t, err)
	assert.Nil(t, gotAbsent.Description)

	gotEmpty, err := s.Get(ctx, empty.ID)
	require.NoError(t, err)
	require.NotNil(t, gotEmpty.Description)
	assert.Equal(t, "", *gotEmpty.Description)
}

func testConcurrentIncrement(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t, store.Options{})

	it, err := s.Create(ctx, domain.CreateInput{Name: "hot", URL: "https://hot.example"})
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.IncrementClick(ctx, it.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.ClickCount)
}
