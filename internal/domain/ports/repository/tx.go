package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// NoTX marks the non-transactional path when calling a repository.
var NoTX Tx

// TransactionManager provides a thin abstraction to execute a function
// within a database transaction, passing the underlying transaction
// handle via `tx`.
//
// Keeping the handle opaque means use-case interfaces stay free of
// driver types, while repository implementations can detect a real
// transaction and route Exec/Query through it.
// Repositories MUST gracefully accept a nil tx (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
