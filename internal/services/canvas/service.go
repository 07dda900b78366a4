// Package canvas implements canvas CRUD, listing and sharing on top of the
// repositories, gated by the permission evaluator.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
	"github.com/natebrady-cyera/deep-thought/internal/auth"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/natebrady-cyera/deep-thought/internal/repository"
)

// ListItem is a canvas annotated with the caller's relationship to it.
type ListItem struct {
	models.Canvas
	OwnerEmail string `json:"owner_email"`
	IsOwner    bool   `json:"is_owner"`
	IsShared   bool   `json:"is_shared"`
	CanWrite   bool   `json:"can_write"`
	NodeCount  int    `json:"node_count"`
}

// CreateInput carries the fields accepted on canvas creation.
type CreateInput struct {
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	ViewportState models.Viewport `json:"viewport_state"`
}

// UpdateInput carries optional canvas fields. Nil fields are left untouched.
type UpdateInput struct {
	Name          *string         `json:"name"`
	Description   *string         `json:"description"`
	ViewportState models.Viewport `json:"viewport_state"`
}

// Service orchestrates canvas persistence and access checks for HTTP handlers.
type Service struct {
	canvases  repository.CanvasRepository
	shares    repository.ShareRepository
	users     repository.UserRepository
	evaluator *auth.Evaluator
	logger    zerolog.Logger
}

// NewService constructs a canvas Service.
func NewService(canvases repository.CanvasRepository, shares repository.ShareRepository, users repository.UserRepository, evaluator *auth.Evaluator) *Service {
	return &Service{
		canvases:  canvases,
		shares:    shares,
		users:     users,
		evaluator: evaluator,
		logger:    zerolog.Nop(),
	}
}

// WithLogger sets the logger used for mutation events.
func (s *Service) WithLogger(logger zerolog.Logger) *Service {
	s.logger = logger.With().Str("service", "canvas").Logger()
	return s
}

// List returns the canvases visible to user. Read-all roles see every canvas;
// everyone else sees the canvases they own or that are shared with them.
func (s *Service) List(ctx context.Context, user *models.User, includeArchived bool) ([]ListItem, error) {
	var (
		canvases []models.Canvas
		err      error
	)
	if s.evaluator.CanReadAll(user) {
		canvases, err = s.canvases.ListAll(ctx, includeArchived)
	} else {
		canvases, err = s.canvases.ListForUser(ctx, user.ID, includeArchived)
	}
	if err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}

	myShares, err := s.shares.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list shares for user: %w", err)
	}
	shareByCanvas := make(map[string]*models.CanvasShare, len(myShares))
	for i := range myShares {
		shareByCanvas[myShares[i].CanvasID] = &myShares[i]
	}

	ids := make([]string, len(canvases))
	for i := range canvases {
		ids[i] = canvases[i].ID
	}
	counts, err := s.canvases.CountNodes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}

	ownerEmails := make(map[string]string)
	items := make([]ListItem, 0, len(canvases))
	for i := range canvases {
		c := &canvases[i]
		email, ok := ownerEmails[c.OwnerID]
		if !ok {
			owner, err := s.users.GetByID(ctx, c.OwnerID)
			if err != nil {
				return nil, fmt.Errorf("load owner of canvas %s: %w", c.ID, err)
			}
			email = owner.Email
			ownerEmails[c.OwnerID] = email
		}

		share := shareByCanvas[c.ID]
		items = append(items, ListItem{
			Canvas:     *c,
			OwnerEmail: email,
			IsOwner:    s.evaluator.IsOwner(user, c),
			IsShared:   share != nil,
			CanWrite:   s.evaluator.CanWrite(user, c, share),
			NodeCount:  counts[c.ID],
		})
	}
	return items, nil
}

// Create persists a new canvas owned by user.
func (s *Service) Create(ctx context.Context, user *models.User, in CreateInput) (*models.Canvas, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("canvas name is required")
	}

	viewport := in.ViewportState
	if viewport == nil {
		viewport = models.DefaultViewport()
	}

	c := &models.Canvas{
		Name:          name,
		Description:   in.Description,
		OwnerID:       user.ID,
		ViewportState: viewport,
	}
	if err := s.canvases.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().Str("canvas_id", c.ID).Str("owner_id", user.ID).Msg("canvas created")
	return c, nil
}

// Resolve loads the canvas and checks that user may read it, or write it when
// write is set. Node and chat operations resolve their canvas through here.
func (s *Service) Resolve(ctx context.Context, user *models.User, canvasID string, write bool) (*models.Canvas, error) {
	c, err := s.canvases.GetByID(ctx, canvasID)
	if err != nil {
		return nil, err
	}

	share, err := s.shareFor(ctx, c.ID, user.ID)
	if err != nil {
		return nil, err
	}

	if write {
		if !s.evaluator.CanWrite(user, c, share) {
			return nil, apperrors.Denied("write access to canvas denied")
		}
		return c, nil
	}
	if !s.evaluator.CanAccess(user, c, share) {
		return nil, apperrors.Denied("access to canvas denied")
	}
	return c, nil
}

// Get returns a canvas the user can read.
func (s *Service) Get(ctx context.Context, user *models.User, canvasID string) (*models.Canvas, error) {
	return s.Resolve(ctx, user, canvasID, false)
}

// Update applies the provided fields to a canvas the user can write.
func (s *Service) Update(ctx context.Context, user *models.User, canvasID string, in UpdateInput) (*models.Canvas, error) {
	c, err := s.Resolve(ctx, user, canvasID, true)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("canvas name must not be empty")
		}
		c.Name = name
	}
	if in.Description != nil {
		c.Description = in.Description
	}
	if in.ViewportState != nil {
		c.ViewportState = in.ViewportState
	}

	if err := s.canvases.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Archive hides the canvas from default listings. Owner only.
func (s *Service) Archive(ctx context.Context, user *models.User, canvasID string) (*models.Canvas, error) {
	return s.setArchived(ctx, user, canvasID, true)
}

// Unarchive restores an archived canvas. Owner only.
func (s *Service) Unarchive(ctx context.Context, user *models.User, canvasID string) (*models.Canvas, error) {
	return s.setArchived(ctx, user, canvasID, false)
}

func (s *Service) setArchived(ctx context.Context, user *models.User, canvasID string, archived bool) (*models.Canvas, error) {
	c, err := s.ownedCanvas(ctx, user, canvasID)
	if err != nil {
		return nil, err
	}

	c.IsArchived = archived
	if err := s.canvases.Update(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().Str("canvas_id", c.ID).Bool("archived", archived).Msg("canvas archive flag changed")
	return c, nil
}

// Delete removes the canvas with its nodes, shares and chats. Allowed for the
// owner and for roles with write-all rights.
func (s *Service) Delete(ctx context.Context, user *models.User, canvasID string) error {
	c, err := s.canvases.GetByID(ctx, canvasID)
	if err != nil {
		return err
	}
	if !s.evaluator.CanDelete(user, c) {
		return apperrors.Denied("only the owner can delete this canvas")
	}

	if err := s.canvases.Delete(ctx, c.ID); err != nil {
		return err
	}

	s.logger.Info().Str("canvas_id", c.ID).Str("user_id", user.ID).Msg("canvas deleted")
	return nil
}

// Share grants the user with targetEmail access to the canvas. Sharing again
// overwrites can_write on the existing grant. Owner only.
func (s *Service) Share(ctx context.Context, user *models.User, canvasID, targetEmail string, canWrite bool) (*models.CanvasShare, error) {
	c, err := s.ownedCanvas(ctx, user, canvasID)
	if err != nil {
		return nil, err
	}

	email := models.NormalizeEmail(targetEmail)
	if email == "" {
		return nil, apperrors.Validation("target email is required")
	}
	target, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if target.ID == c.OwnerID {
		return nil, apperrors.Validation("cannot share a canvas with its owner")
	}

	share := &models.CanvasShare{CanvasID: c.ID, UserID: target.ID, CanWrite: canWrite}
	if err := s.shares.Upsert(ctx, share); err != nil {
		return nil, err
	}
	share.User = target

	s.logger.Info().
		Str("canvas_id", c.ID).
		Str("target_user_id", target.ID).
		Bool("can_write", canWrite).
		Msg("canvas shared")
	return share, nil
}

// Unshare revokes targetUserID's grant. Revoking a grant that does not exist
// is a no-op. Owner only.
func (s *Service) Unshare(ctx context.Context, user *models.User, canvasID, targetUserID string) error {
	c, err := s.ownedCanvas(ctx, user, canvasID)
	if err != nil {
		return err
	}

	removed, err := s.shares.Delete(ctx, c.ID, targetUserID)
	if err != nil {
		return err
	}
	if removed {
		s.logger.Info().Str("canvas_id", c.ID).Str("target_user_id", targetUserID).Msg("canvas unshared")
	}
	return nil
}

// ListShares returns the grants on a canvas with their users loaded. Owner only.
func (s *Service) ListShares(ctx context.Context, user *models.User, canvasID string) ([]models.CanvasShare, error) {
	c, err := s.ownedCanvas(ctx, user, canvasID)
	if err != nil {
		return nil, err
	}
	return s.shares.ListByCanvas(ctx, c.ID)
}

func (s *Service) ownedCanvas(ctx context.Context, user *models.User, canvasID string) (*models.Canvas, error) {
	c, err := s.canvases.GetByID(ctx, canvasID)
	if err != nil {
		return nil, err
	}
	if !s.evaluator.IsOwner(user, c) {
		return nil, apperrors.Denied("only the owner can manage this canvas")
	}
	return c, nil
}

func (s *Service) shareFor(ctx context.Context, canvasID, userID string) (*models.CanvasShare, error) {
	share, err := s.shares.Get(ctx, canvasID, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load share: %w", err)
	}
	return share, nil
}
