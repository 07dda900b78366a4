package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/natebrady-cyera/deep-thought/internal/db/bunx"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/uptrace/bun"
)

// BunShareRepository implements ShareRepository using Bun ORM
type BunShareRepository struct {
	db *bun.DB
}

// NewBunShareRepository creates a new Bun-based share repository
func NewBunShareRepository(db *bun.DB) *BunShareRepository {
	return &BunShareRepository{db: db}
}

// Upsert relies on the unique (canvas_id, user_id) index: a concurrent second
// share lands on the conflict branch instead of inserting a duplicate row.
func (r *BunShareRepository) Upsert(ctx context.Context, share *models.CanvasShare) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if share.ID == "" {
			share.ID = bunx.NewUUIDv7()
		}
		now := time.Now().UTC()
		share.CreatedAt = now
		share.UpdatedAt = now

		_, err := tx.NewInsert().
			Model(share).
			On("CONFLICT (canvas_id, user_id) DO UPDATE").
			Set("can_write = EXCLUDED.can_write").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert share: %w", err)
		}

		err = tx.NewSelect().
			Model(share).
			Where("cs.canvas_id = ? AND cs.user_id = ?", share.CanvasID, share.UserID).
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("reload share: %w", err)
		}
		return nil
	})
}

// Get retrieves the share for a (canvas, user) pair
func (r *BunShareRepository) Get(ctx context.Context, canvasID, userID string) (*models.CanvasShare, error) {
	share := new(models.CanvasShare)
	err := r.db.NewSelect().
		Model(share).
		Where("cs.canvas_id = ? AND cs.user_id = ?", canvasID, userID).
		Scan(ctx)
	if err != nil {
		return nil, wrapGetError(err, "share", canvasID+"/"+userID)
	}
	return share, nil
}

// Delete removes the share if present
func (r *BunShareRepository) Delete(ctx context.Context, canvasID, userID string) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*models.CanvasShare)(nil)).
		Where("canvas_id = ? AND user_id = ?", canvasID, userID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete share: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByCanvas returns the shares of a canvas with the grantee loaded
func (r *BunShareRepository) ListByCanvas(ctx context.Context, canvasID string) ([]models.CanvasShare, error) {
	var shares []models.CanvasShare
	err := r.db.NewSelect().
		Model(&shares).
		Relation("User").
		Where("cs.canvas_id = ?", canvasID).
		Order("cs.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shares for canvas: %w", err)
	}
	return shares, nil
}

// ListByUser returns every share granted to userID
func (r *BunShareRepository) ListByUser(ctx context.Context, userID string) ([]models.CanvasShare, error) {
	var shares []models.CanvasShare
	err := r.db.NewSelect().
		Model(&shares).
		Where("cs.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shares for user: %w", err)
	}
	return shares, nil
}
