package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
	"github.com/natebrady-cyera/deep-thought/internal/db/bunx"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/uptrace/bun"
)

// BunNodeRepository implements NodeRepository using Bun ORM
type BunNodeRepository struct {
	db *bun.DB
}

// NewBunNodeRepository creates a new Bun-based node repository
func NewBunNodeRepository(db *bun.DB) *BunNodeRepository {
	return &BunNodeRepository{db: db}
}

// Create inserts a new node
func (r *BunNodeRepository) Create(ctx context.Context, node *models.Node) error {
	if node.ID == "" {
		node.ID = bunx.NewUUIDv7()
	}
	if node.Data == nil {
		node.Data = models.NodeData{}
	}
	now := time.Now().UTC()
	node.CreatedAt = now
	node.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(node).Exec(ctx); err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	return nil
}

// GetByID retrieves a node by ID
func (r *BunNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("node", id)
	}
	node := new(models.Node)
	err := r.db.NewSelect().
		Model(node).
		Where("n.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, wrapGetError(err, "node", id)
	}
	return node, nil
}

// Update writes every column of node back to the database
func (r *BunNodeRepository) Update(ctx context.Context, node *models.Node) error {
	if !validID(node.ID) {
		return apperrors.NotFound("node", node.ID)
	}
	node.UpdatedAt = time.Now().UTC()

	res, err := r.db.NewUpdate().
		Model(node).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	return requireAffected(res, "node", node.ID)
}

// Delete removes a node together with the chats scoped to it
func (r *BunNodeRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.NotFound("node", id)
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		chatIDs := tx.NewSelect().
			Model((*models.Chat)(nil)).
			Column("id").
			Where("node_id = ?", id)

		if _, err := tx.NewDelete().
			Model((*models.ChatMessage)(nil)).
			Where("chat_id IN (?)", chatIDs).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete node chat messages: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*models.Chat)(nil)).
			Where("node_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete node chats: %w", err)
		}

		res, err := tx.NewDelete().
			Model((*models.Node)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete node: %w", err)
		}
		return requireAffected(res, "node", id)
	})
}

// ListByCanvas returns the nodes of a canvas in creation order
func (r *BunNodeRepository) ListByCanvas(ctx context.Context, canvasID string) ([]models.Node, error) {
	var nodes []models.Node
	err := r.db.NewSelect().
		Model(&nodes).
		Where("n.canvas_id = ?", canvasID).
		Order("n.created_at ASC", "n.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return nodes, nil
}

// UpdatePositions moves nodes of one canvas in a single transaction
func (r *BunNodeRepository) UpdatePositions(ctx context.Context, canvasID string, updates []PositionUpdate) (int, error) {
	applied := 0
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()
		for _, u := range updates {
			if !validID(u.NodeID) {
				continue
			}
			res, err := tx.NewUpdate().
				Model((*models.Node)(nil)).
				Set("position_x = ?", u.X).
				Set("position_y = ?", u.Y).
				Set("updated_at = ?", now).
				Where("id = ? AND canvas_id = ?", u.NodeID, canvasID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("update position of node %s: %w", u.NodeID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			applied += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}
