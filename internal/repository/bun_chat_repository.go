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

// BunChatRepository implements ChatRepository using Bun ORM
type BunChatRepository struct {
	db *bun.DB
}

// NewBunChatRepository creates a new Bun-based chat repository
func NewBunChatRepository(db *bun.DB) *BunChatRepository {
	return &BunChatRepository{db: db}
}

// Create inserts a new chat
func (r *BunChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	if chat.ID == "" {
		chat.ID = bunx.NewUUIDv7()
	}
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(chat).Exec(ctx); err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

// GetByID retrieves a chat by ID
func (r *BunChatRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("chat", id)
	}
	chat := new(models.Chat)
	err := r.db.NewSelect().
		Model(chat).
		Where("ch.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, wrapGetError(err, "chat", id)
	}
	return chat, nil
}

// Update writes every column of chat back to the database
func (r *BunChatRepository) Update(ctx context.Context, chat *models.Chat) error {
	if !validID(chat.ID) {
		return apperrors.NotFound("chat", chat.ID)
	}
	chat.UpdatedAt = time.Now().UTC()

	res, err := r.db.NewUpdate().
		Model(chat).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update chat: %w", err)
	}
	return requireAffected(res, "chat", chat.ID)
}

// SetContextSnapshot writes the first context snapshot of a chat
func (r *BunChatRepository) SetContextSnapshot(ctx context.Context, chatID, snapshot string) (bool, error) {
	if !validID(chatID) {
		return false, apperrors.NotFound("chat", chatID)
	}

	res, err := r.db.NewUpdate().
		Model((*models.Chat)(nil)).
		Set("context_snapshot = ?", snapshot).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", chatID).
		Where("context_snapshot IS NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("set chat context snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Delete removes a chat and its messages
func (r *BunChatRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.NotFound("chat", id)
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.ChatMessage)(nil)).
			Where("chat_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete chat messages: %w", err)
		}
		// Weak back-references from continuation chats are cleared, not cascaded.
		if _, err := tx.NewUpdate().
			Model((*models.Chat)(nil)).
			Set("parent_chat_id = NULL").
			Where("parent_chat_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear chat parent references: %w", err)
		}

		res, err := tx.NewDelete().
			Model((*models.Chat)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete chat: %w", err)
		}
		return requireAffected(res, "chat", id)
	})
}

// ListByCanvas returns chats of a canvas, newest first
func (r *BunChatRepository) ListByCanvas(ctx context.Context, canvasID string, nodeID *string) ([]models.Chat, error) {
	var chats []models.Chat
	q := r.db.NewSelect().
		Model(&chats).
		Where("ch.canvas_id = ?", canvasID)
	if nodeID != nil {
		if !validID(*nodeID) {
			return []models.Chat{}, nil
		}
		q = q.Where("ch.node_id = ?", *nodeID)
	}
	if err := q.Order("ch.created_at DESC", "ch.id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// BunMessageRepository implements MessageRepository using Bun ORM
type BunMessageRepository struct {
	db *bun.DB
}

// NewBunMessageRepository creates a new Bun-based chat message repository
func NewBunMessageRepository(db *bun.DB) *BunMessageRepository {
	return &BunMessageRepository{db: db}
}

// Create appends a message to a chat
func (r *BunMessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = bunx.NewUUIDv7()
	}
	msg.CreatedAt = time.Now().UTC()

	if _, err := r.db.NewInsert().Model(msg).Exec(ctx); err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// ListByChat returns messages oldest first. UUIDv7 ids break timestamp ties.
func (r *BunMessageRepository) ListByChat(ctx context.Context, chatID string, roles ...models.MessageRole) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	q := r.db.NewSelect().
		Model(&msgs).
		Where("cm.chat_id = ?", chatID)
	if len(roles) > 0 {
		q = q.Where("cm.role IN (?)", bun.In(roles))
	}
	if err := q.Order("cm.created_at ASC", "cm.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return msgs, nil
}

// CountByChat returns the number of messages in a chat
func (r *BunMessageRepository) CountByChat(ctx context.Context, chatID string) (int, error) {
	n, err := r.db.NewSelect().
		Model((*models.ChatMessage)(nil)).
		Where("chat_id = ?", chatID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count chat messages: %w", err)
	}
	return n, nil
}
