// Package testutil holds shared helpers for package tests that need a database.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/natebrady-cyera/deep-thought/internal/db/bunx"
	"github.com/natebrady-cyera/deep-thought/internal/migrations"
)

// NewDB opens a migrated in-memory SQLite database that is closed when the test ends.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB(":memory:", bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	_, err = migrations.Apply(context.Background(), db)
	require.NoError(t, err)
	return db
}
