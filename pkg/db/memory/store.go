// Package memory is an in-process storage backend. A single Store guards every
// table with one lock so a transaction can span several repositories.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"tourdesk/pkg/db"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record id")
)

// mutation applies one write and returns how to undo it.
type mutation func() (undo func(), err error)

type txKey struct{}

type tx struct {
	mu  sync.Mutex
	ops []mutation
}

type Store struct {
	mu sync.RWMutex
}

func NewStore() *Store {
	return &Store{}
}

var _ db.TransactionManager = (*Store)(nil)

// ExecuteTransaction buffers every write made through ctx and applies them
// together under the write lock once fn returns. Reads inside fn see committed
// state only. Nothing is applied when fn fails or ctx is done before commit.
func (s *Store) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	if _, ok := ctx.Value(txKey{}).(*tx); ok {
		return fn(ctx)
	}

	t := &tx{}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}

	t.mu.Lock()
	ops := t.ops
	t.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted before commit: %w", err)
	}

	undos := make([]func(), 0, len(ops))
	for _, op := range ops {
		undo, err := op()
		if err != nil {
			for i := len(undos) - 1; i >= 0; i-- {
				undos[i]()
			}
			return err
		}
		undos = append(undos, undo)
	}
	return nil
}

func (s *Store) write(ctx context.Context, op mutation) error {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		t.mu.Lock()
		t.ops = append(t.ops, op)
		t.mu.Unlock()
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := op()
	return err
}

// InTransaction reports whether writes through ctx are being buffered.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*tx)
	return ok
}
