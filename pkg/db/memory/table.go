package memory

import (
	"context"
	"fmt"
)

// Table is a keyed collection inside a Store. Callers own copying: values are
// stored and returned as given.
type Table[T any] struct {
	store *Store
	rows  map[string]T
}

func NewTable[T any](store *Store) *Table[T] {
	return &Table[T]{
		store: store,
		rows:  make(map[string]T),
	}
}

func (t *Table[T]) Get(id string) (T, bool) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	v, ok := t.rows[id]
	return v, ok
}

// Scan calls fn for every row until fn returns false. Order is unspecified.
func (t *Table[T]) Scan(fn func(id string, v T) bool) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for id, v := range t.rows {
		if !fn(id, v) {
			return
		}
	}
}

func (t *Table[T]) Len() int {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return len(t.rows)
}

func (t *Table[T]) Insert(ctx context.Context, id string, v T) error {
	return t.store.write(ctx, func() (func(), error) {
		if _, exists := t.rows[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		t.rows[id] = v
		return func() { delete(t.rows, id) }, nil
	})
}

// Put inserts or replaces the row.
func (t *Table[T]) Put(ctx context.Context, id string, v T) error {
	return t.store.write(ctx, func() (func(), error) {
		return t.set(id, v), nil
	})
}

// Replace overwrites an existing row after check accepts the current value.
func (t *Table[T]) Replace(ctx context.Context, id string, v T, check func(current T) error) error {
	return t.store.write(ctx, func() (func(), error) {
		current, exists := t.rows[id]
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if check != nil {
			if err := check(current); err != nil {
				return nil, err
			}
		}
		return t.set(id, v), nil
	})
}

func (t *Table[T]) Delete(ctx context.Context, id string) error {
	return t.store.write(ctx, func() (func(), error) {
		old, exists := t.rows[id]
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		delete(t.rows, id)
		return func() { t.rows[id] = old }, nil
	})
}

// Remove deletes the row if present and never fails on a missing id.
func (t *Table[T]) Remove(ctx context.Context, id string) error {
	return t.store.write(ctx, func() (func(), error) {
		old, exists := t.rows[id]
		if !exists {
			return func() {}, nil
		}
		delete(t.rows, id)
		return func() { t.rows[id] = old }, nil
	})
}

func (t *Table[T]) set(id string, v T) func() {
	old, existed := t.rows[id]
	t.rows[id] = v
	return func() {
		if existed {
			t.rows[id] = old
		} else {
			delete(t.rows, id)
		}
	}
}
