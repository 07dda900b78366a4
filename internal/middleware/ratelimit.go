package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/natebrady-cyera/deep-thought/internal/auth"
	"github.com/natebrady-cyera/deep-thought/internal/ratelimit"
)

// Allower decides whether a subject may make another request.
type Allower interface {
	Allow(ctx context.Context, subject string) (ratelimit.Decision, error)
}

// NewRateLimitMiddleware limits requests per authenticated user, or per client
// address when no user is on the context. When the limiter itself fails the
// request is let through and the failure logged.
func NewRateLimitMiddleware(limiter Allower, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := "ip:" + clientAddr(r)
			if user, ok := auth.GetUserFromContext(r.Context()); ok {
				subject = "user:" + user.ID
			}

			d, err := limiter.Allow(r.Context(), subject)
			if err != nil {
				logger.Warn().Err(err).Str("subject", subject).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
