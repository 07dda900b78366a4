package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/natebrady-cyera/deep-thought/internal/services/identity"
	"github.com/natebrady-cyera/deep-thought/internal/services/validation"
)

type devLoginRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// devLogin stands in for the SAML assertion consumer in development. It trusts
// the posted email, so it is only mounted when debug is on.
func (h *handlers) devLogin(w http.ResponseWriter, r *http.Request) {
	var req devLoginRequest
	if err := decodeBody(r, h.validator, validation.SchemaDevLogin, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.identity.Login(r.Context(), identity.LoginInput{Email: req.Email, FullName: req.FullName})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("development login")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	})
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Admin

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	users, err := h.identity.List(r.Context(), actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "total": len(users)})
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

func (h *handlers) setUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if err := decodeBody(r, h.validator, validation.SchemaRoleUpdate, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.identity.SetRole(r.Context(), actor, chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info().Str("actor_id", actor.ID).Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user role changed")
	writeJSON(w, http.StatusOK, user)
}
