package domain

import "strings"

// Matches reports whether term is a case-insensitive substring of the name or description.
// An absent description never matches. term must already be lowercased.
func (it RoutineItem) Matches(term string) bool {
	if strings.Contains(strings.ToLower(it.Name), term) {
		return true
	}
	return it.Description != nil && strings.Contains(strings.ToLower(*it.Description), term)
}

// FilterByTerm keeps the items matching term, preserving their order.
// An empty (or whitespace-only) term keeps everything.
func FilterByTerm(items []RoutineItem, term string) []RoutineItem {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	out := make([]RoutineItem, 0, len(items))
	for _, it := range items {
		if it.Matches(term) {
			out = append(out, it)
		}
	}
	return out
}

// Stats is the dashboard summary. MostUsed and LastAdded are nil when there are no items.
type Stats struct {
	TotalItems  int          `json:"totalItems"`
	TotalClicks int64        `json:"totalClicks"`
	MostUsed    *RoutineItem `json:"mostUsed"`
	LastAdded   *RoutineItem `json:"lastAdded"`
}

// ComputeStats aggregates items. Ties keep the first item encountered.
func ComputeStats(items []RoutineItem) Stats {
	s := Stats{TotalItems: len(items)}
	if len(items) == 0 {
		return s
	}

	mostUsed, lastAdded := 0, 0
	for i, it := range items {
		s.TotalClicks += it.ClickCount
		if it.ClickCount > items[mostUsed].ClickCount {
			mostUsed = i
		}
		if it.CreatedAt.After(items[lastAdded].CreatedAt) {
			lastAdded = i
		}
	}

	mu := items[mostUsed].Clone()
	la := items[lastAdded].Clone()
	s.MostUsed = &mu
	s.LastAdded = &la
	return s
}
