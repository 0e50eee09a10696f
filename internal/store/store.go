// Package store provides the persistence layer's session and transaction
// primitives: a Querier abstraction satisfied by both a pool and a live
// transaction, a reentrant transaction scope bound to context.Context, and
// a paginated-read helper.
//
// The ambient session binding the original source threaded through a
// contextvar is re-expressed here as an explicit context.Context value set
// once per request — never a package-level variable — so nothing leaks
// across concurrent requests.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is implemented by thin adapters over *pgxpool.Pool (FromPool) and
// pgx.Tx (the handle WithTx passes to fn). Repository code is written
// against this interface so it works identically whether or
// not a transaction has already been opened by the caller.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (interface{ RowsAffected() int64 }, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pool and pgx.Tx both return pgconn.CommandTag from Exec, which already
// implements RowsAffected() int64 — poolQuerier/txQuerier adapt the
// concrete return type to the narrower interface above so this package
// does not need to import pgconn just to name the type.
type poolQuerier struct{ pool *pgxpool.Pool }

func (q poolQuerier) Exec(ctx context.Context, sql string, args ...any) (interface{ RowsAffected() int64 }, error) {
	tag, err := q.pool.Exec(ctx, sql, args...)
	return tag, err
}
func (q poolQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return q.pool.Query(ctx, sql, args...)
}
func (q poolQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.pool.QueryRow(ctx, sql, args...)
}

type txQuerier struct{ tx pgx.Tx }

func (q txQuerier) Exec(ctx context.Context, sql string, args ...any) (interface{ RowsAffected() int64 }, error) {
	tag, err := q.tx.Exec(ctx, sql, args...)
	return tag, err
}
func (q txQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return q.tx.Query(ctx, sql, args...)
}
func (q txQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.tx.QueryRow(ctx, sql, args...)
}

// TxRunner is the engines' transactional dependency. Production code gets
// one bound to a real pool via NewTxRunner; tests get a fake that invokes
// fn directly against a fake Querier, exercising the engine's cascade
// logic without a live database.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error
}

type poolTxRunner struct{ pool *pgxpool.Pool }

// NewTxRunner returns a TxRunner backed by pool.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return poolTxRunner{pool: pool}
}

func (r poolTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	return WithTx(ctx, r.pool, fn)
}

type txKey struct{}

// WithTx runs fn against a transactional Querier. If ctx already carries a
// transaction (because an outer WithTx call is already in progress), fn
// runs against that same transaction and this call neither begins nor
// commits/rolls back anything — the reentrant scope required by the
// engine's complete-then-materialise call chain. Otherwise a new
// transaction is begun, committed on a nil return, and rolled back
// otherwise, including on panic.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, q Querier) error) (err error) {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx, txQuerier{tx: tx})
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
			}
		}
	}()

	ctx = context.WithValue(ctx, txKey{}, tx)
	if err = fn(ctx, txQuerier{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// FromPool returns a Querier bound to pool, for read-only call sites that
// never need a transaction (list/get endpoints).
func FromPool(pool *pgxpool.Pool) Querier {
	return poolQuerier{pool: pool}
}

// Page runs selectQuery (already containing its own ORDER BY/OFFSET/LIMIT
// placeholders, with selectArgs including the offset/limit values) and
// countQuery (the same filter predicate with no offset/limit) and returns
// the matching rows alongside the unpaged total.
func Page(ctx context.Context, q Querier, selectQuery string, selectArgs []any, countQuery string, countArgs []any) (pgx.Rows, int, error) {
	var total int
	if err := q.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	rows, err := q.Query(ctx, selectQuery, selectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("page query: %w", err)
	}
	return rows, total, nil
}
