// Package postgres implements C4, the storage adapter, directly
// against pgx/v5. The teacher repo generates its query layer with
// sqlc (db/sqlc), but that generated package was never part of this
// tree, and hand-authoring a fake one would mean shipping code that
// only looks generated -- so every repository here issues SQL through
// pgxpool.Pool / pgx.Tx itself, following the same
// Scan-into-pgtype-then-convert shape the teacher's repositories use
// around their generated queries.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every
// repository method can run against either the pool or an open
// transaction without a second code path.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// TxManager opens a pgx transaction and runs fn with it attached to
// ctx; every repository call made through that ctx during fn
// participates in the same transaction. This is how the ledger
// service's write and the cube engine's regeneration of the cells it
// touches commit or roll back together.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithTx runs fn inside a new transaction, committing on success and
// rolling back if fn returns an error or panics.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(context.WithValue(ctx, txKey{}, tx))
	return err
}

// db returns the transaction attached to ctx, or pool if none is
// attached -- letting every repository run standalone reads against
// the pool and writes inside a WithTx block with the same call.
func db(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

var errNoRows = pgx.ErrNoRows

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
