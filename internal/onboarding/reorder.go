package onboarding

import (
	"fmt"
)

// Reorder moves the element at index from to index to and renumbers every
// element with a dense zero-based position through setPos.
func Reorder[T any](items []T, from, to int, setPos func(*T, int)) ([]T, error) {
	if from < 0 || from >= len(items) {
		return items, fmt.Errorf("reorder: source index %d out of range [0,%d)", from, len(items))
	}
	if to < 0 || to >= len(items) {
		return items, fmt.Errorf("reorder: target index %d out of range [0,%d)", to, len(items))
	}

	out := make([]T, 0, len(items))
	moved := items[from]
	for i, item := range items {
		if i == from {
			continue
		}
		out = append(out, item)
	}
	out = append(out[:to], append([]T{moved}, out[to:]...)...)

	Renumber(out, setPos)
	return out, nil
}

// ReorderByIDs arranges items in the order given by ids and renumbers them.
// Every item must be named exactly once.
func ReorderByIDs[T any](items []T, ids []string, idOf func(T) string, setPos func(*T, int)) ([]T, error) {
	if len(ids) != len(items) {
		return items, fmt.Errorf("reorder: got %d ids for %d items", len(ids), len(items))
	}
	byID := make(map[string]T, len(items))
	for _, item := range items {
		byID[idOf(item)] = item
	}

	out := make([]T, 0, len(items))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return items, fmt.Errorf("reorder: unknown id %q", id)
		}
		if seen[id] {
			return items, fmt.Errorf("reorder: duplicate id %q", id)
		}
		seen[id] = true
		out = append(out, item)
	}

	Renumber(out, setPos)
	return out, nil
}

// Renumber assigns positions 0..n-1 in slice order.
func Renumber[T any](items []T, setPos func(*T, int)) {
	for i := range items {
		setPos(&items[i], i)
	}
}
