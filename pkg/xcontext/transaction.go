package xcontext

import (
	"context"

	"gorm.io/gorm"
)

type dbTx struct {
	db     *gorm.DB
	nested bool
	done   bool

	// root owns the hooks, nested transactions append to it.
	root        *dbTx
	afterCommit []func(context.Context)
}

// WithDBTransaction begins a transaction and binds it to the returned
// context. If ctx is already inside a transaction, the returned context joins
// it and the commit/rollback calls become no-ops, the outermost owner decides.
func WithDBTransaction(ctx context.Context) context.Context {
	if current, ok := ctx.Value(dbTxKey{}).(*dbTx); ok && !current.done {
		return context.WithValue(ctx, dbTxKey{}, &dbTx{db: current.db, nested: true, root: current.root})
	}

	tx := &dbTx{db: DB(ctx).Begin()}
	tx.root = tx
	return context.WithValue(ctx, dbTxKey{}, tx)
}

func WithCommitDBTransaction(ctx context.Context) error {
	tx, ok := ctx.Value(dbTxKey{}).(*dbTx)
	if !ok || tx.done || tx.nested {
		return nil
	}

	tx.done = true
	if err := tx.db.Commit().Error; err != nil {
		tx.afterCommit = nil
		return err
	}

	hooks := tx.afterCommit
	tx.afterCommit = nil
	hookCtx := context.WithValue(ctx, dbTxKey{}, nil)
	for _, fn := range hooks {
		fn(hookCtx)
	}

	return nil
}

// WithRollbackDBTransaction is safe to defer right after WithDBTransaction, it
// does nothing once the transaction has been committed. Pending AfterCommit
// hooks are dropped.
func WithRollbackDBTransaction(ctx context.Context) {
	tx, ok := ctx.Value(dbTxKey{}).(*dbTx)
	if !ok || tx.done || tx.nested {
		return
	}

	tx.done = true
	tx.afterCommit = nil
	tx.db.Rollback()
}

// AfterCommit runs fn once the outermost transaction of ctx commits, with a
// context that is no longer bound to it. Outside of a transaction fn runs
// immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	tx, ok := ctx.Value(dbTxKey{}).(*dbTx)
	if !ok || tx == nil || tx.done || tx.root.done {
		fn(context.WithValue(ctx, dbTxKey{}, nil))
		return
	}

	tx.root.afterCommit = append(tx.root.afterCommit, fn)
}
