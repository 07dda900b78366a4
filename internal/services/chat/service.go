// Package chat implements the chat lifecycle and message exchange with the
// completion provider.
//
// A chat is CREATED until its first message is stored and ACTIVE afterwards.
// Sending a message persists the user's turn before the provider is called, so a
// provider failure leaves the user message in place and no assistant message.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/natebrady-cyera/deep-thought/internal/llm"
	"github.com/natebrady-cyera/deep-thought/internal/repository"
	"github.com/natebrady-cyera/deep-thought/internal/services/contextbuilder"
	"github.com/natebrady-cyera/deep-thought/internal/telemetry"
)

// State is the lifecycle position of a chat.
type State string

const (
	StateCreated State = "CREATED"
	StateActive  State = "ACTIVE"
)

// CanvasResolver loads a canvas after checking the caller's read or write right.
type CanvasResolver interface {
	Resolve(ctx context.Context, user *models.User, canvasID string, write bool) (*models.Canvas, error)
}

// Options bounds the provider call.
type Options struct {
	MaxTokens        int
	Timeout          time.Duration
	MaxContextTokens int
}

// CreateInput carries the fields accepted on chat creation.
type CreateInput struct {
	Name     string          `json:"name"`
	ChatType models.ChatType `json:"chat_type"`
	NodeID   *string         `json:"node_id"`
}

// SendInput is one user turn.
type SendInput struct {
	Content              string `json:"content"`
	IncludeCanvasContext bool   `json:"include_canvas_context"`
}

// Detail is a chat with its messages in conversation order.
type Detail struct {
	models.Chat
	State    State                `json:"state"`
	Messages []models.ChatMessage `json:"messages"`
}

// Exchange is the result of a successful send.
type Exchange struct {
	UserMessage      *models.ChatMessage `json:"user_message"`
	AssistantMessage *models.ChatMessage `json:"assistant_message"`
}

// Service orchestrates chats and message exchange for HTTP handlers.
type Service struct {
	chats    repository.ChatRepository
	messages repository.MessageRepository
	nodes    repository.NodeRepository
	canvases CanvasResolver
	provider llm.Provider
	metrics  *telemetry.CompletionMetrics
	opts     Options
	logger   zerolog.Logger
}

// NewService constructs a chat Service.
func NewService(chats repository.ChatRepository, messages repository.MessageRepository, nodes repository.NodeRepository, canvases CanvasResolver, provider llm.Provider) *Service {
	return &Service{
		chats:    chats,
		messages: messages,
		nodes:    nodes,
		canvases: canvases,
		provider: provider,
		opts:     Options{MaxTokens: 4096, Timeout: 120 * time.Second, MaxContextTokens: 100000},
		logger:   zerolog.Nop(),
	}
}

// WithOptions overrides the provider call bounds. Zero fields keep their defaults.
func (s *Service) WithOptions(opts Options) *Service {
	if opts.MaxTokens > 0 {
		s.opts.MaxTokens = opts.MaxTokens
	}
	if opts.Timeout > 0 {
		s.opts.Timeout = opts.Timeout
	}
	if opts.MaxContextTokens > 0 {
		s.opts.MaxContextTokens = opts.MaxContextTokens
	}
	return s
}

// WithMetrics records provider calls on m (optional dependency).
func (s *Service) WithMetrics(m *telemetry.CompletionMetrics) *Service {
	s.metrics = m
	return s
}

// WithLogger sets the logger used for lifecycle and provider events.
func (s *Service) WithLogger(logger zerolog.Logger) *Service {
	s.logger = logger.With().Str("service", "chat").Logger()
	return s
}

// Create opens a chat on a canvas the user can read. A node scope must name a
// node of the same canvas. The chat starts with no snapshot and no parent.
func (s *Service) Create(ctx context.Context, user *models.User, canvasID string, in CreateInput) (*models.Chat, error) {
	c, err := s.canvases.Resolve(ctx, user, canvasID, false)
	if err != nil {
		return nil, err
	}

	if !in.ChatType.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown chat type %q", in.ChatType))
	}

	if in.NodeID != nil {
		n, err := s.nodes.GetByID(ctx, *in.NodeID)
		if err != nil {
			return nil, err
		}
		if n.CanvasID != c.ID {
			return nil, apperrors.Validation("node does not belong to this canvas")
		}
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = DefaultName(in.ChatType)
	}

	chat := &models.Chat{
		CanvasID: c.ID,
		NodeID:   in.NodeID,
		Name:     name,
		ChatType: in.ChatType,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("chat_id", chat.ID).Str("canvas_id", c.ID).Str("chat_type", string(chat.ChatType)).Msg("chat created")
	return chat, nil
}

// List returns the chats of a canvas the user can read, newest first. A non-nil
// nodeID restricts the result to that node's chats.
func (s *Service) List(ctx context.Context, user *models.User, canvasID string, nodeID *string) ([]models.Chat, error) {
	c, err := s.canvases.Resolve(ctx, user, canvasID, false)
	if err != nil {
		return nil, err
	}
	return s.chats.ListByCanvas(ctx, c.ID, nodeID)
}

// Get returns the chat with its full message history.
func (s *Service) Get(ctx context.Context, user *models.User, chatID string) (*Detail, error) {
	chat, _, err := s.resolveChat(ctx, user, chatID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByChat(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	state := StateCreated
	if len(msgs) > 0 {
		state = StateActive
	}
	return &Detail{Chat: *chat, State: state, Messages: msgs}, nil
}

// Rename changes the chat name.
func (s *Service) Rename(ctx context.Context, user *models.User, chatID, name string) (*models.Chat, error) {
	chat, _, err := s.resolveChat(ctx, user, chatID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("chat name must not be empty")
	}
	chat.Name = name
	if err := s.chats.Update(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// Delete removes the chat and its messages.
func (s *Service) Delete(ctx context.Context, user *models.User, chatID string) error {
	chat, _, err := s.resolveChat(ctx, user, chatID)
	if err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, chat.ID); err != nil {
		return err
	}

	s.logger.Debug().Str("chat_id", chat.ID).Msg("chat deleted")
	return nil
}

// Parent follows the chat's parent reference. It returns nil when the chat has no
// parent, when the parent was deleted, or when the stored reference does not
// satisfy the continuation rule.
func (s *Service) Parent(ctx context.Context, user *models.User, chatID string) (*models.Chat, error) {
	chat, _, err := s.resolveChat(ctx, user, chatID)
	if err != nil {
		return nil, err
	}
	if chat.ParentChatID == nil {
		return nil, nil
	}

	parent, err := s.chats.GetByID(ctx, *chat.ParentChatID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !chat.CanContinueFrom(parent) {
		return nil, nil
	}
	return parent, nil
}

// SendMessage stores the user's turn, replays the conversation to the provider
// under the chat type's system prompt and stores the reply. Read access to the
// canvas is sufficient.
//
// On provider failure the returned error matches apperrors.ErrProviderFailure and
// the user message stays persisted without an assistant reply.
func (s *Service) SendMessage(ctx context.Context, user *models.User, chatID string, in SendInput) (*Exchange, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerChat, "chat.SendMessage",
		attribute.String(telemetry.AttrChatID, chatID),
		attribute.String(telemetry.AttrUserID, user.ID),
	)
	defer span.End()

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperrors.Validation("message content is required")
	}

	chat, canvas, err := s.resolveChat(ctx, user, chatID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String(telemetry.AttrCanvasID, canvas.ID),
		attribute.String(telemetry.AttrChatType, string(chat.ChatType)),
	)

	canvasContext, err := s.assembleContext(ctx, canvas, chat, in.IncludeCanvasContext)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	tokens := contextbuilder.EstimateTokens(canvasContext)
	span.SetAttributes(
		attribute.Int(telemetry.AttrContextChars, len(canvasContext)),
		attribute.Int(telemetry.AttrContextTokens, tokens),
	)
	if tokens > s.opts.MaxContextTokens {
		// TODO: apply a truncation policy once product decides between per-node and global cuts.
		s.logger.Warn().
			Str("chat_id", chat.ID).
			Int("estimated_tokens", tokens).
			Int("max_context_tokens", s.opts.MaxContextTokens).
			Msg("canvas context exceeds token budget")
		telemetry.AddEvent(span, "context.over_budget")
	}

	systemPrompt := SystemPrompt(chat.ChatType, canvasContext)

	userMsg := &models.ChatMessage{ChatID: chat.ID, Role: models.MessageRoleUser, Content: content}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if chat.ContextSnapshot == nil {
		set, err := s.chats.SetContextSnapshot(ctx, chat.ID, canvasContext)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("store context snapshot: %w", err)
		}
		if set {
			chat.ContextSnapshot = &canvasContext
		}
	}

	history, err := s.messages.ListByChat(ctx, chat.ID, models.MessageRoleUser, models.MessageRoleAssistant)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrHistoryLength, len(history)))

	completion, err := s.complete(ctx, chat, history, systemPrompt)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error().Err(err).Str("chat_id", chat.ID).Msg("completion failed, user message kept")
		return nil, err
	}

	reply := &models.ChatMessage{ChatID: chat.ID, Role: models.MessageRoleAssistant, Content: completion.Content}
	if completion.Usage.TotalTokens > 0 {
		total := completion.Usage.TotalTokens
		reply.TokenCount = &total
	}
	if err := s.messages.Create(ctx, reply); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrTokensTotal, completion.Usage.TotalTokens))

	s.logger.Info().
		Str("chat_id", chat.ID).
		Int("prompt_tokens", completion.Usage.PromptTokens).
		Int("completion_tokens", completion.Usage.CompletionTokens).
		Msg("assistant reply stored")
	return &Exchange{UserMessage: userMsg, AssistantMessage: reply}, nil
}

// PreviewContext renders the full canvas context for a canvas the user can read.
func (s *Service) PreviewContext(ctx context.Context, user *models.User, canvasID string) (string, error) {
	c, err := s.canvases.Resolve(ctx, user, canvasID, false)
	if err != nil {
		return "", err
	}
	nodes, err := s.nodes.ListByCanvas(ctx, c.ID)
	if err != nil {
		return "", err
	}
	return contextbuilder.BuildContext(c, nodes), nil
}

func (s *Service) complete(ctx context.Context, chat *models.Chat, history []models.ChatMessage, systemPrompt string) (*llm.Completion, error) {
	msgs := make([]llm.Message, len(history))
	for i, m := range history {
		msgs[i] = llm.Message{Role: m.Role, Content: m.Content}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	completion, err := s.provider.Complete(callCtx, msgs, systemPrompt, s.opts.MaxTokens)
	if err == nil && strings.TrimSpace(completion.Content) == "" {
		err = errors.New("provider returned empty content")
	}
	if err != nil {
		err = apperrors.ProviderFailure(err)
	}

	if s.metrics != nil {
		total := 0
		if completion != nil {
			total = completion.Usage.TotalTokens
		}
		s.metrics.RecordCompletion(ctx, string(chat.ChatType), total, float64(time.Since(start).Milliseconds()), err)
	}
	if err != nil {
		return nil, err
	}
	return completion, nil
}

// assembleContext renders the full canvas unless the chat is node-scoped and the
// caller did not ask for the whole canvas.
func (s *Service) assembleContext(ctx context.Context, canvas *models.Canvas, chat *models.Chat, includeCanvas bool) (string, error) {
	if !includeCanvas && chat.NodeID != nil {
		n, err := s.nodes.GetByID(ctx, *chat.NodeID)
		if err == nil {
			return contextbuilder.BuildNodeContext(canvas, n), nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return "", err
		}
	}

	nodes, err := s.nodes.ListByCanvas(ctx, canvas.ID)
	if err != nil {
		return "", err
	}
	return contextbuilder.BuildContext(canvas, nodes), nil
}

func (s *Service) resolveChat(ctx context.Context, user *models.User, chatID string) (*models.Chat, *models.Canvas, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.canvases.Resolve(ctx, user, chat.CanvasID, false)
	if err != nil {
		return nil, nil, err
	}
	return chat, c, nil
}
