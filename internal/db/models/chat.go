package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ChatType selects the system prompt template used for a chat.
type ChatType string

const (
	ChatTypeSalesAssistant ChatType = "sales_assistant"
	ChatTypeWhatsNext      ChatType = "whats_next"
	ChatTypePersona        ChatType = "persona"
)

// Valid reports whether t is one of the known chat types.
func (t ChatType) Valid() bool {
	switch t {
	case ChatTypeSalesAssistant, ChatTypeWhatsNext, ChatTypePersona:
		return true
	}
	return false
}

// MessageRole is the author of a chat message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Chat is a conversation scoped to a canvas, or to one node when NodeID is set.
// ParentChatID is a weak back-reference to the chat this one continues from.
type Chat struct {
	bun.BaseModel `bun:"table:chats,alias:ch"`

	ID              string    `bun:"id,pk,type:uuid" json:"id"`
	CanvasID        string    `bun:"canvas_id,notnull,type:uuid" json:"canvas_id"`
	NodeID          *string   `bun:"node_id,type:uuid" json:"node_id"`
	Name            string    `bun:"name,notnull" json:"name"`
	ChatType        ChatType  `bun:"chat_type,notnull" json:"chat_type"`
	ParentChatID    *string   `bun:"parent_chat_id,type:uuid" json:"parent_chat_id"`
	ContextSnapshot *string   `bun:"context_snapshot" json:"context_snapshot,omitempty"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// CanContinueFrom reports whether parent may be recorded as this chat's parent:
// same canvas, distinct chat, strictly earlier creation time.
func (c *Chat) CanContinueFrom(parent *Chat) bool {
	if parent == nil || parent.ID == c.ID || parent.CanvasID != c.CanvasID {
		return false
	}
	return parent.CreatedAt.Before(c.CreatedAt)
}

// ChatMessage is one entry of a chat's history, ordered by creation time.
type ChatMessage struct {
	bun.BaseModel `bun:"table:chat_messages,alias:cm"`

	ID         string      `bun:"id,pk,type:uuid" json:"id"`
	ChatID     string      `bun:"chat_id,notnull,type:uuid" json:"chat_id"`
	Role       MessageRole `bun:"role,notnull" json:"role"`
	Content    string      `bun:"content,notnull" json:"content"`
	TokenCount *int        `bun:"token_count" json:"token_count,omitempty"`
	CreatedAt  time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
