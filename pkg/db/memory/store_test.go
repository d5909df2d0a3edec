package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_InsertGetDelete(t *testing.T) {
	store := NewStore()
	table := NewTable[string](store)
	ctx := context.Background()

	require.NoError(t, table.Insert(ctx, "a", "alpha"))

	err := table.Insert(ctx, "a", "again")
	assert.True(t, errors.Is(err, ErrDuplicate))

	v, ok := table.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", v)

	require.NoError(t, table.Delete(ctx, "a"))
	_, ok = table.Get("a")
	assert.False(t, ok)

	assert.True(t, errors.Is(table.Delete(ctx, "a"), ErrNotFound))
	assert.NoError(t, table.Remove(ctx, "a"))
}

func TestTable_ReplaceCheck(t *testing.T) {
	store := NewStore()
	table := NewTable[int](store)
	ctx := context.Background()
	require.NoError(t, table.Put(ctx, "n", 1))

	stale := errors.New("stale")
	err := table.Replace(ctx, "n", 5, func(current int) error {
		if current != 2 {
			return stale
		}
		return nil
	})
	assert.ErrorIs(t, err, stale)

	v, _ := table.Get("n")
	assert.Equal(t, 1, v)

	require.NoError(t, table.Replace(ctx, "n", 2, func(current int) error { return nil }))
	v, _ = table.Get("n")
	assert.Equal(t, 2, v)

	assert.ErrorIs(t, table.Replace(ctx, "missing", 1, nil), ErrNotFound)
}

func TestStore_TransactionCommitsTogether(t *testing.T) {
	store := NewStore()
	left := NewTable[string](store)
	right := NewTable[string](store)

	err := store.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		require.True(t, InTransaction(ctx))
		require.NoError(t, left.Put(ctx, "k", "l"))
		require.NoError(t, right.Put(ctx, "k", "r"))

		// buffered writes are invisible until commit
		_, ok := left.Get("k")
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	l, ok := left.Get("k")
	require.True(t, ok)
	assert.Equal(t, "l", l)
	r, ok := right.Get("k")
	require.True(t, ok)
	assert.Equal(t, "r", r)
}

func TestStore_TransactionDiscardedOnError(t *testing.T) {
	store := NewStore()
	table := NewTable[string](store)
	boom := errors.New("boom")

	err := store.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		require.NoError(t, table.Put(ctx, "k", "v"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, table.Len())
}

func TestStore_TransactionRollsBackFailedCommit(t *testing.T) {
	store := NewStore()
	table := NewTable[string](store)
	ctx := context.Background()
	require.NoError(t, table.Put(ctx, "existing", "v0"))

	err := store.ExecuteTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, table.Put(ctx, "fresh", "v1"))
		require.NoError(t, table.Put(ctx, "existing", "v2"))
		return table.Insert(ctx, "existing", "dup")
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, ok := table.Get("fresh")
	assert.False(t, ok)
	v, _ := table.Get("existing")
	assert.Equal(t, "v0", v)
}

func TestStore_TransactionAbortedWhenContextExpires(t *testing.T) {
	store := NewStore()
	table := NewTable[string](store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := store.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, table.Put(txCtx, "k", "v"))
		<-txCtx.Done()
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, table.Len())
}

func TestStore_NestedTransactionJoinsOuter(t *testing.T) {
	store := NewStore()
	table := NewTable[string](store)

	err := store.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		return store.ExecuteTransaction(ctx, func(inner context.Context) error {
			return table.Put(inner, "k", "v")
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}
