package domain

import (
	"math"
	"sort"
)

// MaxOrder is the largest order a client may set. It fits a 32-bit SQL INTEGER column.
const MaxOrder = math.MaxInt32

// NextOrder returns max(order)+1 over items, or 0 when items is empty.
func NextOrder(items []RoutineItem) int {
	if len(items) == 0 {
		return 0
	}
	maxOrder := items[0].Order
	for _, it := range items[1:] {
		if it.Order > maxOrder {
			maxOrder = it.Order
		}
	}
	return OrderAfter(maxOrder)
}

// OrderAfter returns maxOrder+1, saturating at MaxOrder.
func OrderAfter(maxOrder int) int {
	if maxOrder >= MaxOrder {
		return MaxOrder
	}
	return maxOrder + 1
}

// SortItems sorts in place by Order ascending, ties broken by insertion sequence.
func SortItems(items []RoutineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].Seq < items[j].Seq
	})
}

// PlanReorder computes the new order of every item after a reorder request.
//
// An id at position i of ids gets order i (a repeated id keeps its last position).
// Ids unknown to items are skipped but still consume their position.
// Items omitted from ids are appended after len(ids), keeping their previous relative order.
// The returned map holds an entry for every item.
func PlanReorder(items []RoutineItem, ids []string) map[string]int {
	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}

	plan := make(map[string]int, len(items))
	for i, id := range ids {
		if known[id] {
			plan[id] = i
		}
	}

	rest := make([]RoutineItem, 0, len(items)-len(plan))
	for _, it := range items {
		if _, ok := plan[it.ID]; !ok {
			rest = append(rest, it)
		}
	}
	SortItems(rest)

	next := len(ids)
	for _, it := range rest {
		plan[it.ID] = next
		next++
	}
	return plan
}
