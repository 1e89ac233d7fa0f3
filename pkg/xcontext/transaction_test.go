package xcontext_test

import (
	"context"
	"testing"

	"github.com/questx-lab/reputation/pkg/testutil"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func TestAfterCommit(t *testing.T) {
	ctx := testutil.MockContext()

	var calls []string
	xcontext.AfterCommit(ctx, func(context.Context) { calls = append(calls, "immediate") })
	require.Equal(t, []string{"immediate"}, calls)

	txCtx := xcontext.WithDBTransaction(ctx)
	nestedCtx := xcontext.WithDBTransaction(txCtx)
	xcontext.AfterCommit(nestedCtx, func(hookCtx context.Context) {
		calls = append(calls, "committed")

		// The hook is free to start its own transaction.
		innerCtx := xcontext.WithDBTransaction(hookCtx)
		defer xcontext.WithRollbackDBTransaction(innerCtx)
		require.NoError(t, xcontext.DB(innerCtx).Exec("SELECT 1").Error)
		require.NoError(t, xcontext.WithCommitDBTransaction(innerCtx))
	})

	require.NoError(t, xcontext.WithCommitDBTransaction(nestedCtx))
	require.Equal(t, []string{"immediate"}, calls)

	require.NoError(t, xcontext.WithCommitDBTransaction(txCtx))
	require.Equal(t, []string{"immediate", "committed"}, calls)

	// Hooks run once.
	require.NoError(t, xcontext.WithCommitDBTransaction(txCtx))
	require.Equal(t, []string{"immediate", "committed"}, calls)
}

func TestAfterCommit_Rollback(t *testing.T) {
	ctx := testutil.MockContext()

	var calls int
	txCtx := xcontext.WithDBTransaction(ctx)
	xcontext.AfterCommit(txCtx, func(context.Context) { calls++ })
	xcontext.WithRollbackDBTransaction(txCtx)
	require.Zero(t, calls)

	// A new transaction does not inherit hooks of the rolled back one.
	txCtx = xcontext.WithDBTransaction(ctx)
	require.NoError(t, xcontext.WithCommitDBTransaction(txCtx))
	require.Zero(t, calls)
}
