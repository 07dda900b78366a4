package auth

import "github.com/natebrady-cyera/deep-thought/internal/db/models"

// Objects and actions used in role policies.
const (
	// ObjectAnyCanvas targets every canvas regardless of ownership or shares.
	ObjectAnyCanvas = "canvas:*"
	// ObjectUsers targets the user directory.
	ObjectUsers = "users"

	ActionRead   = "read"
	ActionWrite  = "write"
	ActionManage = "manage"
)

// RoleGrant is one (role, object, action) policy line.
type RoleGrant struct {
	Role   models.Role
	Object string
	Action string
}

// DefaultRoleGrants are the role-wide rights. SALES_MANAGER reads every canvas but
// writes only what it owns or was granted write on.
var DefaultRoleGrants = []RoleGrant{
	{models.RoleAdmin, ObjectAnyCanvas, ActionRead},
	{models.RoleAdmin, ObjectAnyCanvas, ActionWrite},
	{models.RoleAdmin, ObjectUsers, ActionManage},
	{models.RoleSalesManager, ObjectAnyCanvas, ActionRead},
}
