package migrations

import (
	"context"
	"fmt"

	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20251020000001, down_20251020000001)
}

type tableSpec struct {
	name        string
	model       any
	foreignKeys []string
	indexes     []string
}

var initSchema = []tableSpec{
	{
		name:  "users",
		model: (*models.User)(nil),
	},
	{
		name:  "canvases",
		model: (*models.Canvas)(nil),
		foreignKeys: []string{
			`(owner_id) REFERENCES users(id) ON DELETE CASCADE`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_canvases_owner_id ON canvases(owner_id)`,
		},
	},
	{
		name:  "canvas_shares",
		model: (*models.CanvasShare)(nil),
		foreignKeys: []string{
			`(canvas_id) REFERENCES canvases(id) ON DELETE CASCADE`,
			`(user_id) REFERENCES users(id) ON DELETE CASCADE`,
		},
		indexes: []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_canvas_shares_canvas_user ON canvas_shares(canvas_id, user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_canvas_shares_user_id ON canvas_shares(user_id)`,
		},
	},
	{
		name:  "nodes",
		model: (*models.Node)(nil),
		foreignKeys: []string{
			`(canvas_id) REFERENCES canvases(id) ON DELETE CASCADE`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_nodes_canvas_id ON nodes(canvas_id)`,
		},
	},
	{
		name:  "chats",
		model: (*models.Chat)(nil),
		foreignKeys: []string{
			`(canvas_id) REFERENCES canvases(id) ON DELETE CASCADE`,
			`(node_id) REFERENCES nodes(id) ON DELETE CASCADE`,
			`(parent_chat_id) REFERENCES chats(id) ON DELETE SET NULL`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_chats_canvas_id ON chats(canvas_id)`,
			`CREATE INDEX IF NOT EXISTS idx_chats_node_id ON chats(node_id)`,
		},
	},
	{
		name:  "chat_messages",
		model: (*models.ChatMessage)(nil),
		foreignKeys: []string{
			`(chat_id) REFERENCES chats(id) ON DELETE CASCADE`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_chat_messages_chat_created ON chat_messages(chat_id, created_at)`,
		},
	},
}

// up_20251020000001 creates the users, canvases, canvas_shares, nodes, chats and
// chat_messages tables with their cascading foreign keys.
func up_20251020000001(ctx context.Context, db *bun.DB) error {
	for _, spec := range initSchema {
		fmt.Printf(" [up] creating %s table...", spec.name)
		q := db.NewCreateTable().
			Model(spec.model).
			IfNotExists()
		for _, fk := range spec.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create %s table: %w", spec.name, err)
		}

		for _, idx := range spec.indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", spec.name, err)
			}
		}

		fmt.Println(" OK")
	}

	return nil
}

// down_20251020000001 drops the schema in reverse dependency order.
func down_20251020000001(ctx context.Context, db *bun.DB) error {
	for i := len(initSchema) - 1; i >= 0; i-- {
		spec := initSchema[i]
		fmt.Printf(" [down] dropping %s table...", spec.name)
		q := db.NewDropTable().Model(spec.model).IfExists()
		if supportsDropCascade(db) {
			q = q.Cascade()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop %s table: %w", spec.name, err)
		}
		fmt.Println(" OK")
	}
	return nil
}
