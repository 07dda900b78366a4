package auth

import "github.com/natebrady-cyera/deep-thought/internal/db/models"

// Evaluator decides canvas read and write rights for a user. It holds no state beyond
// the role policy and performs no I/O: callers pass the share row for (canvas, user),
// or nil when none exists. Nodes and chats have no ACL of their own and are checked
// against their canvas.
type Evaluator struct {
	roles *RolePolicy
}

// NewEvaluator creates an Evaluator over the given role policy.
func NewEvaluator(roles *RolePolicy) *Evaluator {
	return &Evaluator{roles: roles}
}

// CanAccess is true for the owner, for roles with read-all rights, and for any
// share regardless of its can_write flag.
func (e *Evaluator) CanAccess(user *models.User, canvas *models.Canvas, share *models.CanvasShare) bool {
	if user == nil || canvas == nil {
		return false
	}
	if user.ID == canvas.OwnerID {
		return true
	}
	if e.CanReadAll(user) {
		return true
	}
	return shareMatches(user, canvas, share)
}

// CanWrite is true for the owner, for roles with write-all rights, and for a share
// with can_write set.
func (e *Evaluator) CanWrite(user *models.User, canvas *models.Canvas, share *models.CanvasShare) bool {
	if user == nil || canvas == nil {
		return false
	}
	if user.ID == canvas.OwnerID {
		return true
	}
	if e.roles.Allows(user.Role, ObjectAnyCanvas, ActionWrite) {
		return true
	}
	return shareMatches(user, canvas, share) && share.CanWrite
}

// CanReadAll reports whether the user's role reads every canvas.
func (e *Evaluator) CanReadAll(user *models.User) bool {
	return user != nil && e.roles.Allows(user.Role, ObjectAnyCanvas, ActionRead)
}

// CanDelete is true for the owner and for roles with write-all rights.
func (e *Evaluator) CanDelete(user *models.User, canvas *models.Canvas) bool {
	if user == nil || canvas == nil {
		return false
	}
	return user.ID == canvas.OwnerID || e.roles.Allows(user.Role, ObjectAnyCanvas, ActionWrite)
}

// IsOwner reports whether user owns canvas. Archive and share management are owner-only.
func (e *Evaluator) IsOwner(user *models.User, canvas *models.Canvas) bool {
	return user != nil && canvas != nil && user.ID == canvas.OwnerID
}

// CanManageUsers reports whether the user may list users and change roles.
func (e *Evaluator) CanManageUsers(user *models.User) bool {
	return user != nil && e.roles.Allows(user.Role, ObjectUsers, ActionManage)
}

func shareMatches(user *models.User, canvas *models.Canvas, share *models.CanvasShare) bool {
	return share != nil && share.CanvasID == canvas.ID && share.UserID == user.ID
}
