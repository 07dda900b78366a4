package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
	"github.com/natebrady-cyera/deep-thought/internal/auth"
	"github.com/natebrady-cyera/deep-thought/internal/repository"
	"github.com/natebrady-cyera/deep-thought/internal/telemetry"
)

// AuthnDependencies bundles collaborators required by the authentication middleware.
type AuthnDependencies struct {
	Tokens  *auth.TokenIssuer
	Users   repository.UserRepository
	Metrics *telemetry.AuthMetrics // optional
	Logger  zerolog.Logger
}

// NewAuthnMiddleware verifies the bearer token, loads the user named by its
// subject and stores it on the request context. Unknown and inactive users are
// rejected with 401.
func NewAuthnMiddleware(deps AuthnDependencies) (func(http.Handler) http.Handler, error) {
	if deps.Tokens == nil {
		return nil, errors.New("authn middleware requires a token issuer")
	}
	if deps.Users == nil {
		return nil, errors.New("authn middleware requires a user repository")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			reject := func(reason, msg string) {
				if deps.Metrics != nil {
					deps.Metrics.RecordAuth(ctx, false, reason)
				}
				writeError(w, http.StatusUnauthorized, msg)
			}

			token, ok := auth.BearerToken(r)
			if !ok {
				reject("missing_token", "unauthenticated")
				return
			}

			claims, err := deps.Tokens.Verify(token)
			if err != nil {
				deps.Logger.Debug().Err(err).Str("path", r.URL.Path).Msg("bearer token rejected")
				reject("invalid_token", "invalid token")
				return
			}

			user, err := deps.Users.GetByID(ctx, claims.Subject)
			if errors.Is(err, apperrors.ErrNotFound) {
				reject("unknown_user", "invalid token")
				return
			}
			if err != nil {
				deps.Logger.Error().Err(err).Str("user_id", claims.Subject).Msg("load authenticated user")
				writeError(w, http.StatusInternalServerError, "authentication error")
				return
			}
			if !user.IsActive {
				reject("disabled", "account disabled")
				return
			}

			if deps.Metrics != nil {
				deps.Metrics.RecordAuth(ctx, true, "")
			}
			next.ServeHTTP(w, r.WithContext(auth.SetUserContext(ctx, user)))
		})
	}, nil
}

// unauthenticated is a helper to return an unauthenticated error response.
func unauthenticated(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthenticated")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
