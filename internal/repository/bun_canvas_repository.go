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

// BunCanvasRepository implements CanvasRepository using Bun ORM
type BunCanvasRepository struct {
	db *bun.DB
}

// NewBunCanvasRepository creates a new Bun-based canvas repository
func NewBunCanvasRepository(db *bun.DB) *BunCanvasRepository {
	return &BunCanvasRepository{db: db}
}

// Create inserts a new canvas
func (r *BunCanvasRepository) Create(ctx context.Context, canvas *models.Canvas) error {
	if canvas.ID == "" {
		canvas.ID = bunx.NewUUIDv7()
	}
	now := time.Now().UTC()
	canvas.CreatedAt = now
	canvas.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(canvas).Exec(ctx); err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	return nil
}

// GetByID retrieves a canvas by ID
func (r *BunCanvasRepository) GetByID(ctx context.Context, id string) (*models.Canvas, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("canvas", id)
	}
	canvas := new(models.Canvas)
	err := r.db.NewSelect().
		Model(canvas).
		Where("c.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, wrapGetError(err, "canvas", id)
	}
	return canvas, nil
}

// Update writes every column of canvas back to the database
func (r *BunCanvasRepository) Update(ctx context.Context, canvas *models.Canvas) error {
	if !validID(canvas.ID) {
		return apperrors.NotFound("canvas", canvas.ID)
	}
	canvas.UpdatedAt = time.Now().UTC()

	res, err := r.db.NewUpdate().
		Model(canvas).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update canvas: %w", err)
	}
	return requireAffected(res, "canvas", canvas.ID)
}

// Delete removes a canvas and everything it owns in one transaction. Foreign keys
// cascade as well; the explicit deletes keep the result independent of FK enforcement.
func (r *BunCanvasRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.NotFound("canvas", id)
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		chatIDs := tx.NewSelect().
			Model((*models.Chat)(nil)).
			Column("id").
			Where("canvas_id = ?", id)

		if _, err := tx.NewDelete().
			Model((*models.ChatMessage)(nil)).
			Where("chat_id IN (?)", chatIDs).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete canvas messages: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*models.Chat)(nil)).
			Where("canvas_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete canvas chats: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*models.CanvasShare)(nil)).
			Where("canvas_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete canvas shares: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*models.Node)(nil)).
			Where("canvas_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete canvas nodes: %w", err)
		}

		res, err := tx.NewDelete().
			Model((*models.Canvas)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete canvas: %w", err)
		}
		return requireAffected(res, "canvas", id)
	})
}

// ListAll returns every canvas, most recently updated first
func (r *BunCanvasRepository) ListAll(ctx context.Context, includeArchived bool) ([]models.Canvas, error) {
	var canvases []models.Canvas
	q := r.db.NewSelect().Model(&canvases)
	if !includeArchived {
		q = q.Where("c.is_archived = ?", false)
	}
	if err := q.Order("c.updated_at DESC", "c.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	return canvases, nil
}

// ListForUser returns the canvases userID owns or has a share on. The single
// OR predicate yields each canvas once even when it is both owned and shared.
func (r *BunCanvasRepository) ListForUser(ctx context.Context, userID string, includeArchived bool) ([]models.Canvas, error) {
	shared := r.db.NewSelect().
		Model((*models.CanvasShare)(nil)).
		Column("canvas_id").
		Where("user_id = ?", userID)

	var canvases []models.Canvas
	q := r.db.NewSelect().
		Model(&canvases).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("c.owner_id = ?", userID).
				WhereOr("c.id IN (?)", shared)
		})
	if !includeArchived {
		q = q.Where("c.is_archived = ?", false)
	}
	if err := q.Order("c.updated_at DESC", "c.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list canvases for user: %w", err)
	}
	return canvases, nil
}

// CountNodes returns the number of nodes per canvas
func (r *BunCanvasRepository) CountNodes(ctx context.Context, canvasIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(canvasIDs))
	if len(canvasIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		CanvasID string `bun:"canvas_id"`
		Count    int    `bun:"node_count"`
	}
	err := r.db.NewSelect().
		Model((*models.Node)(nil)).
		Column("canvas_id").
		ColumnExpr("count(*) AS node_count").
		Where("canvas_id IN (?)", bun.In(canvasIDs)).
		Group("canvas_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	for _, row := range rows {
		counts[row.CanvasID] = row.Count
	}
	return counts, nil
}
