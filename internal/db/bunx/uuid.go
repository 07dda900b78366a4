package bunx

import "github.com/google/uuid"

// NewUUIDv7 generates a time-ordered UUIDv7 string for primary keys and token ids.
// Ids generated in one process sort in creation order, which the message history
// relies on as a tie-breaker for identical timestamps.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}
