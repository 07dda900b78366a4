// Package node implements node CRUD and batch positioning. Nodes have no ACL of
// their own: every operation is gated by the owning canvas.
package node

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/natebrady-cyera/deep-thought/internal/repository"
)

// CanvasResolver loads a canvas after checking the caller's read or write right.
type CanvasResolver interface {
	Resolve(ctx context.Context, user *models.User, canvasID string, write bool) (*models.Canvas, error)
}

// CreateInput carries the fields accepted on node creation.
type CreateInput struct {
	NodeType           string            `json:"node_type"`
	Title              string            `json:"title"`
	PositionX          float64           `json:"position_x"`
	PositionY          float64           `json:"position_y"`
	Width              *int              `json:"width"`
	Height             *int              `json:"height"`
	Data               models.NodeData   `json:"data"`
	ExcludeFromContext bool              `json:"exclude_from_context"`
	Status             models.NodeStatus `json:"status"`
}

// UpdateInput carries optional node fields. Nil fields are left untouched.
type UpdateInput struct {
	Title              *string           `json:"title"`
	PositionX          *float64          `json:"position_x"`
	PositionY          *float64          `json:"position_y"`
	Width              *int              `json:"width"`
	Height             *int              `json:"height"`
	Data               models.NodeData   `json:"data"`
	ExcludeFromContext *bool             `json:"exclude_from_context"`
	Status             models.NodeStatus `json:"status"`
}

// Service orchestrates node persistence for HTTP handlers.
type Service struct {
	nodes    repository.NodeRepository
	canvases CanvasResolver
	logger   zerolog.Logger
}

// NewService constructs a node Service.
func NewService(nodes repository.NodeRepository, canvases CanvasResolver) *Service {
	return &Service{nodes: nodes, canvases: canvases, logger: zerolog.Nop()}
}

// WithLogger sets the logger used for mutation events.
func (s *Service) WithLogger(logger zerolog.Logger) *Service {
	s.logger = logger.With().Str("service", "node").Logger()
	return s
}

// NodeTypes returns the node type catalogue.
func (s *Service) NodeTypes() []models.NodeTypeInfo {
	return models.NodeTypes
}

// ListForCanvas returns the nodes of a canvas the user can read, in creation order.
func (s *Service) ListForCanvas(ctx context.Context, user *models.User, canvasID string) ([]models.Node, error) {
	c, err := s.canvases.Resolve(ctx, user, canvasID, false)
	if err != nil {
		return nil, err
	}
	return s.nodes.ListByCanvas(ctx, c.ID)
}

// Create adds a node to a canvas the user can write.
func (s *Service) Create(ctx context.Context, user *models.User, canvasID string, in CreateInput) (*models.Node, error) {
	c, err := s.canvases.Resolve(ctx, user, canvasID, true)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.NodeType) == "" {
		return nil, apperrors.Validation("node type is required")
	}
	if !models.IsKnownNodeType(in.NodeType) {
		s.logger.Debug().Str("node_type", in.NodeType).Msg("node type outside the catalogue")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.Validation("node title is required")
	}

	data := in.Data
	if data == nil {
		data = models.NodeData{}
	}

	n := &models.Node{
		CanvasID:           c.ID,
		NodeType:           in.NodeType,
		Title:              title,
		PositionX:          in.PositionX,
		PositionY:          in.PositionY,
		Width:              in.Width,
		Height:             in.Height,
		Data:               data,
		ExcludeFromContext: in.ExcludeFromContext,
		Status:             in.Status,
	}
	n.RecomputeContentSize()

	if err := s.nodes.Create(ctx, n); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("node_id", n.ID).Str("canvas_id", c.ID).Str("node_type", n.NodeType).Msg("node created")
	return n, nil
}

// Get returns a node whose canvas the user can read.
func (s *Service) Get(ctx context.Context, user *models.User, nodeID string) (*models.Node, error) {
	n, err := s.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.canvases.Resolve(ctx, user, n.CanvasID, false); err != nil {
		return nil, err
	}
	return n, nil
}

// Update applies the provided fields in place. content_size is recomputed when
// the title or data change.
func (s *Service) Update(ctx context.Context, user *models.User, nodeID string, in UpdateInput) (*models.Node, error) {
	n, err := s.writableNode(ctx, user, nodeID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperrors.Validation("node title must not be empty")
		}
		n.Title = title
	}
	if in.PositionX != nil {
		n.PositionX = *in.PositionX
	}
	if in.PositionY != nil {
		n.PositionY = *in.PositionY
	}
	if in.Width != nil {
		n.Width = in.Width
	}
	if in.Height != nil {
		n.Height = in.Height
	}
	if in.Data != nil {
		n.Data = in.Data
	}
	if in.ExcludeFromContext != nil {
		n.ExcludeFromContext = *in.ExcludeFromContext
	}
	if in.Status != nil {
		n.Status = in.Status
	}
	if in.Title != nil || in.Data != nil {
		n.RecomputeContentSize()
	}

	if err := s.nodes.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes a node and the chats scoped to it.
func (s *Service) Delete(ctx context.Context, user *models.User, nodeID string) error {
	n, err := s.writableNode(ctx, user, nodeID)
	if err != nil {
		return err
	}
	if err := s.nodes.Delete(ctx, n.ID); err != nil {
		return err
	}

	s.logger.Debug().Str("node_id", n.ID).Str("canvas_id", n.CanvasID).Msg("node deleted")
	return nil
}

// BulkUpdatePositions moves nodes of a canvas the user can write and returns how
// many were moved. Ids that are unknown or belong to another canvas are skipped
// so a drag batch succeeds partially instead of failing as a whole.
func (s *Service) BulkUpdatePositions(ctx context.Context, user *models.User, canvasID string, updates []repository.PositionUpdate) (int, error) {
	c, err := s.canvases.Resolve(ctx, user, canvasID, true)
	if err != nil {
		return 0, err
	}
	if len(updates) == 0 {
		return 0, nil
	}

	applied, err := s.nodes.UpdatePositions(ctx, c.ID, updates)
	if err != nil {
		return 0, err
	}
	if skipped := len(updates) - applied; skipped > 0 {
		s.logger.Debug().Str("canvas_id", c.ID).Int("skipped", skipped).Msg("position updates skipped unknown nodes")
	}
	return applied, nil
}

func (s *Service) writableNode(ctx context.Context, user *models.User, nodeID string) (*models.Node, error) {
	n, err := s.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.canvases.Resolve(ctx, user, n.CanvasID, true); err != nil {
		return nil, err
	}
	return n, nil
}
