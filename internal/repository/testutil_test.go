package repository

import (
	"context"
	"testing"

	"github.com/natebrady-cyera/deep-thought/internal/db/bunx"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/natebrady-cyera/deep-thought/internal/migrations"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// setupTestDB opens a migrated in-memory SQLite database closed at test end.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB(":memory:", bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { bunx.Close(db) })

	_, err = migrations.Apply(context.Background(), db)
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, db *bun.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Role: models.RoleUser, IsActive: true}
	require.NoError(t, NewBunUserRepository(db).Create(context.Background(), u))
	return u
}

func createCanvas(t *testing.T, db *bun.DB, owner *models.User, name string) *models.Canvas {
	t.Helper()
	c := &models.Canvas{Name: name, OwnerID: owner.ID, ViewportState: models.DefaultViewport()}
	require.NoError(t, NewBunCanvasRepository(db).Create(context.Background(), c))
	return c
}

func createNode(t *testing.T, db *bun.DB, canvas *models.Canvas, title string) *models.Node {
	t.Helper()
	n := &models.Node{CanvasID: canvas.ID, NodeType: models.NodeTypeGeneric, Title: title}
	n.RecomputeContentSize()
	require.NoError(t, NewBunNodeRepository(db).Create(context.Background(), n))
	return n
}

func createChat(t *testing.T, db *bun.DB, canvas *models.Canvas, nodeID *string) *models.Chat {
	t.Helper()
	c := &models.Chat{CanvasID: canvas.ID, NodeID: nodeID, Name: "chat", ChatType: models.ChatTypeSalesAssistant}
	require.NoError(t, NewBunChatRepository(db).Create(context.Background(), c))
	return c
}
