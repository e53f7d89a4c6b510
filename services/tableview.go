package services

import (
	"slices"
	"sync"
)

// TableView is a sortable projection over a fixed set of rows. Each ordering
// is computed the first time it is asked for and memoized by its key, so
// switching a list between columns never re-reads the rows.
type TableView[T any] struct {
	rows []T

	mu   sync.Mutex
	memo map[string][]T
}

func NewTableView[T any](rows []T) *TableView[T] {
	return &TableView[T]{rows: rows, memo: make(map[string][]T)}
}

// Len returns the number of rows.
func (v *TableView[T]) Len() int { return len(v.rows) }

// Rows returns the rows in load order. The slice is shared.
func (v *TableView[T]) Rows() []T { return v.rows }

// Sorted returns the rows ordered by cmp. A key must always be used with
// the same comparator. The returned slice is shared and must not be
// modified.
func (v *TableView[T]) Sorted(key string, cmp func(a, b T) int) []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.memo[key]; ok {
		return s
	}
	s := slices.Clone(v.rows)
	slices.SortStableFunc(s, cmp)
	v.memo[key] = s
	return s
}

// Orderings reports how many orderings have been memoized.
func (v *TableView[T]) Orderings() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.memo)
}

// Page returns rows[offset:offset+limit], clamped to the slice.
func Page[T any](rows []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return nil
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}
