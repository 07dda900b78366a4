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

// BunUserRepository implements UserRepository using Bun ORM
type BunUserRepository struct {
	db *bun.DB
}

// NewBunUserRepository creates a new Bun-based user repository
func NewBunUserRepository(db *bun.DB) *BunUserRepository {
	return &BunUserRepository{db: db}
}

// Create inserts a new user. A second user with the same normalized email is rejected
// with apperrors.ErrConflict.
func (r *BunUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = bunx.NewUUIDv7()
	}
	user.Email = models.NormalizeEmail(user.Email)
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(user).
		Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, apperrors.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID
func (r *BunUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("user", id)
	}
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, wrapGetError(err, "user", id)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *BunUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	normalized := models.NormalizeEmail(email)
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("email = ?", normalized).
		Scan(ctx)
	if err != nil {
		return nil, wrapGetError(err, "user", normalized)
	}
	return user, nil
}

// Update writes every column of user back to the database
func (r *BunUserRepository) Update(ctx context.Context, user *models.User) error {
	if !validID(user.ID) {
		return apperrors.NotFound("user", user.ID)
	}
	user.Email = models.NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now().UTC()

	res, err := r.db.NewUpdate().
		Model(user).
		WherePK().
		Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, apperrors.ErrConflict)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res, "user", user.ID)
}

// List returns all users ordered by email
func (r *BunUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.NewSelect().
		Model(&users).
		Order("email ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Count returns the number of users
func (r *BunUserRepository) Count(ctx context.Context) (int, error) {
	n, err := r.db.NewSelect().
		Model((*models.User)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
