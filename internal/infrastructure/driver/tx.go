package driver

import (
	"context"
	"sync"

	"github.com/unifreelancer/academy/internal/infrastructure/logging"
	"go.uber.org/zap"
)

type txContextKey struct{}

// Transactor runs fn inside one unit of work, nested calls join the outer one
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// WithTx binds tx to ctx so repositories pick it up through ConnFromContext
func WithTx(ctx context.Context, tx ITransactionalDB) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// ConnFromContext returns the transaction bound to ctx, or fallback if there is none
func ConnFromContext(ctx context.Context, fallback ITransactionalDB) ITransactionalDB {
	if tx, ok := ctx.Value(txContextKey{}).(ITransactionalDB); ok {
		return tx
	}
	return fallback
}

// SQLTransactor Transactor backed by a SQL driver transaction
type SQLTransactor struct {
	db   ITransactionalDB
	opts *TxOptions
}

var _ Transactor = &SQLTransactor{}

// NewSQLTransactor create a SQLTransactor, opts may be nil for driver defaults
func NewSQLTransactor(db ITransactionalDB, opts *TxOptions) *SQLTransactor {
	return &SQLTransactor{db: db, opts: opts}
}

// RunInTx commits when fn returns nil and rolls back otherwise, panics roll back and re-panic
func (st *SQLTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txContextKey{}).(ITransactionalDB); ok {
		return fn(ctx)
	}

	tx, err := st.db.BeginTx(ctx, st.opts)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err = fn(WithTx(ctx, tx)); err != nil {
		if rerr := tx.Rollback(ctx); rerr != nil {
			logging.ExtractLoggerFromContext(ctx).Warn("rollback failed", zap.Error(rerr))
		}
		return err
	}
	return tx.Commit(ctx)
}

type lockContextKey struct{}

// LockTransactor serializes units of work with a mutex, used by the in-memory stores
type LockTransactor struct {
	mu sync.Mutex
}

var _ Transactor = &LockTransactor{}

// NewLockTransactor .
func NewLockTransactor() *LockTransactor {
	return &LockTransactor{}
}

// RunInTx runs fn while holding the lock
func (lt *LockTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if holder, ok := ctx.Value(lockContextKey{}).(*LockTransactor); ok && holder == lt {
		return fn(ctx)
	}
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return fn(context.WithValue(ctx, lockContextKey{}, lt))
}
