package domain

import "time"

// RoutineItem is a stored quick-access link.
//
// The store owns the canonical record. Everything handed out of a store is a copy.
type RoutineItem struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is generated by the store on creation and never reused.
	ID string `json:"id"`

	// ─────────────────────────────
	// User-editable fields
	// ─────────────────────────────

	// Name is the display label, 1-100 characters after trimming.
	Name string `json:"name"`

	// URL is an absolute URL (scheme + host).
	// Example: https://gmail.com
	URL string `json:"url"`

	// Description is optional. nil means absent, which is distinct from "".
	Description *string `json:"description"`

	// Order controls display sequence. Values may repeat or leave gaps.
	Order int `json:"order"`

	// ─────────────────────────────
	// Usage & metadata
	// ─────────────────────────────

	// ClickCount only grows through IncrementClick.
	ClickCount int64 `json:"clickCount"`

	// CreatedAt is set once at creation.
	CreatedAt time.Time `json:"createdAt"`

	// Seq is the store-assigned insertion sequence, used to break Order ties.
	Seq int64 `json:"-"`
}

// Clone returns a deep copy.
func (it RoutineItem) Clone() RoutineItem {
	if it.Description != nil {
		d := *it.Description
		it.Description = &d
	}
	return it
}

// DescriptionOrEmpty returns the description, or "" when absent.
func (it RoutineItem) DescriptionOrEmpty() string {
	if it.Description == nil {
		return ""
	}
	return *it.Description
}

// NewItem assembles a freshly created item. clickCount always starts at 0.
func NewItem(id string, in CreateInput, order int, seq int64, now time.Time) RoutineItem {
	it := RoutineItem{
		ID:        id,
		Name:      in.Name,
		URL:       in.URL,
		Order:     order,
		CreatedAt: now,
		Seq:       seq,
	}
	if in.Description != nil {
		d := *in.Description
		it.Description = &d
	}
	return it
}
