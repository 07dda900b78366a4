package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/natebrady-cyera/deep-thought/internal/auth"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/natebrady-cyera/deep-thought/internal/repository"
	"github.com/natebrady-cyera/deep-thought/internal/services/canvas"
	"github.com/natebrady-cyera/deep-thought/internal/services/chat"
	"github.com/natebrady-cyera/deep-thought/internal/services/contextbuilder"
	"github.com/natebrady-cyera/deep-thought/internal/services/identity"
	"github.com/natebrady-cyera/deep-thought/internal/services/node"
	"github.com/natebrady-cyera/deep-thought/internal/services/validation"
)

type handlers struct {
	canvases  *canvas.Service
	nodes     *node.Service
	chats     *chat.Service
	identity  *identity.Service
	tokens    *auth.TokenIssuer
	validator *validation.PayloadValidator
	logger    zerolog.Logger
}

// currentUser returns the authenticated user or writes 401.
func (h *handlers) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
		return nil, false
	}
	return user, true
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, h.logger, err)
}

// Canvases

func (h *handlers) listCanvases(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))

	items, err := h.canvases.List(r.Context(), user, includeArchived)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"canvases": items, "total": len(items)})
}

func (h *handlers) createCanvas(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var in canvas.CreateInput
	if err := decodeBody(r, h.validator, validation.SchemaCanvasCreate, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.canvases.Create(r.Context(), user, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handlers) getCanvas(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	c, err := h.canvases.Get(r.Context(), user, chi.URLParam(r, "canvasID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handlers) updateCanvas(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var in canvas.UpdateInput
	if err := decodeBody(r, h.validator, validation.SchemaCanvasUpdate, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.canvases.Update(r.Context(), user, chi.URLParam(r, "canvasID"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handlers) deleteCanvas(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.canvases.Delete(r.Context(), user, chi.URLParam(r, "canvasID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) archiveCanvas(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	c, err := h.canvases.Archive(r.Context(), user, chi.URLParam(r, "canvasID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handlers) unarchiveCanvas(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	c, err := h.canvases.Unarchive(r.Context(), user, chi.URLParam(r, "canvasID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type shareRequest struct {
	Email    string `json:"email"`
	CanWrite bool   `json:"can_write"`
}

func (h *handlers) listShares(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	shares, err := h.canvases.ListShares(r.Context(), user, chi.URLParam(r, "canvasID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shares": shares})
}

func (h *handlers) shareCanvas(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req shareRequest
	if err := decodeBody(r, h.validator, validation.SchemaShareCreate, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	share, err := h.canvases.Share(r.Context(), user, chi.URLParam(r, "canvasID"), req.Email, req.CanWrite)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}

func (h *handlers) unshareCanvas(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	err := h.canvases.Unshare(r.Context(), user, chi.URLParam(r, "canvasID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) canvasContext(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	text, err := h.chats.PreviewContext(r.Context(), user, chi.URLParam(r, "canvasID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"context":          text,
		"estimated_tokens": contextbuilder.EstimateTokens(text),
	})
}

// Nodes

func (h *handlers) nodeTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"node_types": h.nodes.NodeTypes()})
}

func (h *handlers) listNodes(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	nodes, err := h.nodes.ListForCanvas(r.Context(), user, chi.URLParam(r, "canvasID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (h *handlers) createNode(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var in node.CreateInput
	if err := decodeBody(r, h.validator, validation.SchemaNodeCreate, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	n, err := h.nodes.Create(r.Context(), user, chi.URLParam(r, "canvasID"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

type positionsRequest struct {
	Updates []repository.PositionUpdate `json:"updates"`
}

func (h *handlers) updatePositions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req positionsRequest
	if err := decodeBody(r, h.validator, validation.SchemaPositionsUpdate, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	applied, err := h.nodes.BulkUpdatePositions(r.Context(), user, chi.URLParam(r, "canvasID"), req.Updates)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": applied, "requested": len(req.Updates)})
}

func (h *handlers) getNode(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.nodes.Get(r.Context(), user, chi.URLParam(r, "nodeID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *handlers) updateNode(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var in node.UpdateInput
	if err := decodeBody(r, h.validator, validation.SchemaNodeUpdate, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	n, err := h.nodes.Update(r.Context(), user, chi.URLParam(r, "nodeID"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *handlers) deleteNode(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.nodes.Delete(r.Context(), user, chi.URLParam(r, "nodeID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Chats

func (h *handlers) listChats(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var nodeID *string
	if v := r.URL.Query().Get("node_id"); v != "" {
		nodeID = &v
	}

	chats, err := h.chats.List(r.Context(), user, chi.URLParam(r, "canvasID"), nodeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chats": chats})
}

func (h *handlers) createChat(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var in chat.CreateInput
	if err := decodeBody(r, h.validator, validation.SchemaChatCreate, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.chats.Create(r.Context(), user, chi.URLParam(r, "canvasID"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handlers) getChat(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	detail, err := h.chats.Get(r.Context(), user, chi.URLParam(r, "chatID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *handlers) renameChat(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if err := decodeBody(r, h.validator, validation.SchemaChatRename, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.chats.Rename(r.Context(), user, chi.URLParam(r, "chatID"), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handlers) deleteChat(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.chats.Delete(r.Context(), user, chi.URLParam(r, "chatID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var in chat.SendInput
	if err := decodeBody(r, h.validator, validation.SchemaMessageSend, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	exchange, err := h.chats.SendMessage(r.Context(), user, chi.URLParam(r, "chatID"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exchange)
}
