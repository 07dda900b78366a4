package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
)

// validID reports whether id can name a row. Primary keys are uuid columns and
// Postgres rejects anything else with 22P02 instead of matching nothing.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "23505")
}

// wrapGetError turns sql.ErrNoRows into apperrors.ErrNotFound.
func wrapGetError(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(kind, id)
	}
	return fmt.Errorf("get %s %s: %w", kind, id, err)
}

// requireAffected reports NotFound when a keyed write touched no row.
func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound(kind, id)
	}
	return nil
}
