package repository

import (
	"context"

	"github.com/natebrady-cyera/deep-thought/internal/db/models"
)

// UserRepository exposes persistence operations for users. Emails are stored and
// matched in normalized (lowercase) form.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int, error)
}

// CanvasRepository exposes persistence operations for canvases.
type CanvasRepository interface {
	Create(ctx context.Context, canvas *models.Canvas) error
	GetByID(ctx context.Context, id string) (*models.Canvas, error)
	Update(ctx context.Context, canvas *models.Canvas) error
	// Delete removes the canvas with its nodes, shares, chats and messages.
	Delete(ctx context.Context, id string) error

	// ListAll returns every canvas, used for roles with read-all rights.
	ListAll(ctx context.Context, includeArchived bool) ([]models.Canvas, error)
	// ListForUser returns canvases owned by or shared with userID, each once.
	ListForUser(ctx context.Context, userID string, includeArchived bool) ([]models.Canvas, error)
	// CountNodes returns node counts keyed by canvas id. Canvases without nodes are absent.
	CountNodes(ctx context.Context, canvasIDs []string) (map[string]int, error)
}

// ShareRepository exposes persistence operations for canvas shares.
type ShareRepository interface {
	// Upsert inserts the share or overwrites can_write on the existing
	// (canvas_id, user_id) row. share is refreshed from the stored row.
	Upsert(ctx context.Context, share *models.CanvasShare) error
	Get(ctx context.Context, canvasID, userID string) (*models.CanvasShare, error)
	// Delete removes the share and reports whether a row existed.
	Delete(ctx context.Context, canvasID, userID string) (bool, error)
	ListByCanvas(ctx context.Context, canvasID string) ([]models.CanvasShare, error)
	ListByUser(ctx context.Context, userID string) ([]models.CanvasShare, error)
}

// PositionUpdate moves one node.
type PositionUpdate struct {
	NodeID string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// NodeRepository exposes persistence operations for nodes.
type NodeRepository interface {
	Create(ctx context.Context, node *models.Node) error
	GetByID(ctx context.Context, id string) (*models.Node, error)
	Update(ctx context.Context, node *models.Node) error
	// Delete removes the node with the chats scoped to it.
	Delete(ctx context.Context, id string) error
	// ListByCanvas returns nodes in creation order.
	ListByCanvas(ctx context.Context, canvasID string) ([]models.Node, error)
	// UpdatePositions applies updates for nodes of canvasID and returns how many
	// were applied. Ids that are unknown or belong to another canvas are skipped.
	UpdatePositions(ctx context.Context, canvasID string, updates []PositionUpdate) (int, error)
}

// ChatRepository exposes persistence operations for chats.
type ChatRepository interface {
	Create(ctx context.Context, chat *models.Chat) error
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	Update(ctx context.Context, chat *models.Chat) error
	// SetContextSnapshot stores snapshot only while the chat has none and touches
	// no other column. It reports whether the snapshot was written.
	SetContextSnapshot(ctx context.Context, chatID, snapshot string) (bool, error)
	// Delete removes the chat with its messages.
	Delete(ctx context.Context, id string) error
	// ListByCanvas returns chats of a canvas, newest first. A non-nil nodeID
	// restricts the result to chats scoped to that node.
	ListByCanvas(ctx context.Context, canvasID string, nodeID *string) ([]models.Chat, error)
}

// MessageRepository exposes persistence operations for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	// ListByChat returns messages in conversation order. When roles is non-empty
	// only messages with one of those roles are returned.
	ListByChat(ctx context.Context, chatID string, roles ...models.MessageRole) ([]models.ChatMessage, error)
	CountByChat(ctx context.Context, chatID string) (int, error)
}
