package repository

import (
	"context"
	"testing"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBunNodeRepository_RoundTripsData(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunNodeRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com")
	c := createCanvas(t, db, owner, "Acme Deal")

	width := 320
	n := &models.Node{
		CanvasID: c.ID,
		NodeType: models.NodeTypePerson,
		Title:    "Jane Doe",
		Width:    &width,
		Data: models.NodeData{
			"role":     models.StringValue("CISO"),
			"tenure":   models.NumberValue(4),
			"contacts": models.ListValue(models.StringValue("email")),
		},
		Status: models.NodeStatus{"warning": "stale"},
	}
	n.RecomputeContentSize()
	require.NoError(t, repo.Create(ctx, n))

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	role, ok := got.Data["role"].AsString()
	require.True(t, ok)
	assert.Equal(t, "CISO", role)
	tenure, ok := got.Data["tenure"].AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(4), tenure)
	assert.Equal(t, models.KindList, got.Data["contacts"].Kind())
	assert.Equal(t, n.ContentSize, got.ContentSize)
	require.NotNil(t, got.Width)
	assert.Equal(t, 320, *got.Width)
	assert.Nil(t, got.Height)
	assert.Equal(t, "stale", got.Status["warning"])
}

func TestBunNodeRepository_UpdatePositionsSkipsUnknown(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunNodeRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com")
	c := createCanvas(t, db, owner, "Acme Deal")
	other := createCanvas(t, db, owner, "Other")
	a := createNode(t, db, c, "A")
	b := createNode(t, db, c, "B")
	foreign := createNode(t, db, other, "Foreign")

	applied, err := repo.UpdatePositions(ctx, c.ID, []PositionUpdate{
		{NodeID: a.ID, X: 10, Y: 20},
		{NodeID: "does-not-exist", X: 1, Y: 1},
		{NodeID: foreign.ID, X: 99, Y: 99},
		{NodeID: b.ID, X: -5.5, Y: 7.25},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.PositionX)
	assert.Equal(t, 20.0, got.PositionY)

	got, err = repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, -5.5, got.PositionX)

	got, err = repo.GetByID(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Zero(t, got.PositionX)
}

func TestBunNodeRepository_DeleteRemovesScopedChats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunNodeRepository(db)
	chats := NewBunChatRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com")
	c := createCanvas(t, db, owner, "Acme Deal")
	n := createNode(t, db, c, "Jane Doe")
	sibling := createNode(t, db, c, "John Roe")
	nodeChat := createChat(t, db, c, &n.ID)
	dealChat := createChat(t, db, c, nil)

	require.NoError(t, repo.Delete(ctx, n.ID))

	_, err := chats.GetByID(ctx, nodeChat.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = chats.GetByID(ctx, dealChat.ID)
	assert.NoError(t, err)

	nodes, err := repo.ListByCanvas(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, sibling.ID, nodes[0].ID)

	assert.ErrorIs(t, repo.Delete(ctx, n.ID), apperrors.ErrNotFound)
}

func TestRepositories_MalformedIDsAreUnknown(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com")
	c := createCanvas(t, db, owner, "Acme Deal")
	n := createNode(t, db, c, "A")

	nodes := NewBunNodeRepository(db)
	canvases := NewBunCanvasRepository(db)
	chats := NewBunChatRepository(db)
	users := NewBunUserRepository(db)

	_, err := canvases.GetByID(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = nodes.GetByID(ctx, "tmp-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = chats.GetByID(ctx, "tmp-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = users.GetByID(ctx, "tmp-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, canvases.Delete(ctx, "garbage"), apperrors.ErrNotFound)
	assert.ErrorIs(t, nodes.Delete(ctx, "tmp-1"), apperrors.ErrNotFound)
	assert.ErrorIs(t, chats.Delete(ctx, "tmp-1"), apperrors.ErrNotFound)

	bogus := "tmp-1"
	list, err := chats.ListByCanvas(ctx, c.ID, &bogus)
	require.NoError(t, err)
	assert.Empty(t, list)

	applied, err := nodes.UpdatePositions(ctx, c.ID, []PositionUpdate{
		{NodeID: "tmp-1", X: 1, Y: 1},
		{NodeID: n.ID, X: 3, Y: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
}
