package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Viewport is the client's pan/zoom state. The server stores it without interpreting it.
type Viewport map[string]any

// DefaultViewport is assigned to new canvases.
func DefaultViewport() Viewport {
	return Viewport{"x": 0.0, "y": 0.0, "zoom": 1.0}
}

// Scan implements sql.Scanner for reading from database
func (v *Viewport) Scan(value any) error {
	return scanJSON(value, v, "Viewport")
}

// Value implements driver.Valuer for writing to database
func (v Viewport) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Canvas is a named workspace of nodes belonging to one owner.
type Canvas struct {
	bun.BaseModel `bun:"table:canvases,alias:c"`

	ID            string    `bun:"id,pk,type:uuid" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Description   *string   `bun:"description" json:"description,omitempty"`
	OwnerID       string    `bun:"owner_id,notnull,type:uuid" json:"owner_id"`
	IsArchived    bool      `bun:"is_archived,notnull,default:false" json:"is_archived"`
	ViewportState Viewport  `bun:"viewport_state,type:jsonb" json:"viewport_state,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// CanvasShare grants a non-owner user read, or read-write, access to a canvas.
// At most one row exists per (canvas_id, user_id).
type CanvasShare struct {
	bun.BaseModel `bun:"table:canvas_shares,alias:cs"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	CanvasID  string    `bun:"canvas_id,notnull,type:uuid" json:"canvas_id"`
	UserID    string    `bun:"user_id,notnull,type:uuid" json:"user_id"`
	CanWrite  bool      `bun:"can_write,notnull,default:false" json:"can_write"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// scanJSON decodes a JSON column delivered as []byte or string.
func scanJSON(value any, dest any, name string) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan %s: expected []byte or string, got %T", name, value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
