package migrations

import (
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// supportsDropCascade reports whether DROP TABLE accepts CASCADE. SQLite rejects it.
func supportsDropCascade(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.PG
}
