package auth

import (
	"context"

	"github.com/natebrady-cyera/deep-thought/internal/db/models"
)

type userContextKey struct{}

// SetUserContext stores the authenticated user on the context for downstream handlers.
func SetUserContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUserFromContext retrieves the authenticated user from the context.
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*models.User)
	return user, ok && user != nil
}
