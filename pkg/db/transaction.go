package db

import "context"

// TransactionFunc runs inside a store transaction. Repositories called with the
// ctx it receives take part in that transaction.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}
