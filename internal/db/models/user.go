package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Role is the coarse-grained role carried by every user.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleSalesManager Role = "SALES_MANAGER"
	RoleUser         Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSalesManager, RoleUser:
		return true
	}
	return false
}

// User is a human principal keyed by lowercase email.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               string    `bun:"id,pk,type:uuid" json:"id"`
	Email            string    `bun:"email,notnull,unique" json:"email"`
	FullName         *string   `bun:"full_name" json:"full_name,omitempty"`
	Role             Role      `bun:"role,notnull,default:'USER'" json:"role"`
	IsActive         bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	SAMLNameID       *string   `bun:"saml_name_id" json:"-"`
	SAMLSessionIndex *string   `bun:"saml_session_index" json:"-"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// NormalizeEmail returns the identity key form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
