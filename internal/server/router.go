package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/natebrady-cyera/deep-thought/internal/auth"
	dtmiddleware "github.com/natebrady-cyera/deep-thought/internal/middleware"
	"github.com/natebrady-cyera/deep-thought/internal/repository"
	"github.com/natebrady-cyera/deep-thought/internal/services/canvas"
	"github.com/natebrady-cyera/deep-thought/internal/services/chat"
	"github.com/natebrady-cyera/deep-thought/internal/services/identity"
	"github.com/natebrady-cyera/deep-thought/internal/services/node"
	"github.com/natebrady-cyera/deep-thought/internal/services/validation"
	"github.com/natebrady-cyera/deep-thought/internal/telemetry"
)

// RouterOptions controls the construction of the HTTP router. Services, Tokens,
// Users, Evaluator and Validator are required.
type RouterOptions struct {
	Canvases  *canvas.Service
	Nodes     *node.Service
	Chats     *chat.Service
	Identity  *identity.Service
	Tokens    *auth.TokenIssuer
	Users     repository.UserRepository
	Evaluator *auth.Evaluator
	Validator *validation.PayloadValidator

	RateLimiter   dtmiddleware.Allower // nil disables rate limiting
	ServerMetrics *telemetry.ServerMetrics
	AuthMetrics   *telemetry.AuthMetrics

	APIPrefix     string
	DevAuth       bool
	CORSOptions   *cors.Options
	HealthHandler http.HandlerFunc
	Logger        zerolog.Logger
}

// DefaultCORSOptions returns the development CORS policy for the canvas frontend.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:3000",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy and the
// API handlers mounted under opts.APIPrefix.
func NewRouter(opts RouterOptions) (chi.Router, error) {
	if opts.Canvases == nil || opts.Nodes == nil || opts.Chats == nil || opts.Identity == nil {
		return nil, errors.New("router requires canvas, node, chat and identity services")
	}
	if opts.Validator == nil || opts.Evaluator == nil {
		return nil, errors.New("router requires a payload validator and permission evaluator")
	}

	authn, err := dtmiddleware.NewAuthnMiddleware(dtmiddleware.AuthnDependencies{
		Tokens:  opts.Tokens,
		Users:   opts.Users,
		Metrics: opts.AuthMetrics,
		Logger:  opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	prefix := opts.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(opts.Logger, opts.ServerMetrics))
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	h := &handlers{
		canvases:  opts.Canvases,
		nodes:     opts.Nodes,
		chats:     opts.Chats,
		identity:  opts.Identity,
		tokens:    opts.Tokens,
		validator: opts.Validator,
		logger:    opts.Logger,
	}

	r.Route(prefix, func(r chi.Router) {
		if opts.DevAuth {
			opts.Logger.Warn().Msg("development login endpoint enabled")
			r.Post("/dev-auth/login", h.devLogin)
		}

		r.Group(func(r chi.Router) {
			r.Use(authn)
			if opts.RateLimiter != nil {
				r.Use(dtmiddleware.NewRateLimitMiddleware(opts.RateLimiter, opts.Logger))
			}

			r.Get("/auth/me", h.me)
			r.Get("/node-types", h.nodeTypes)

			r.Route("/canvases", func(r chi.Router) {
				r.Get("/", h.listCanvases)
				r.Post("/", h.createCanvas)
				r.Route("/{canvasID}", func(r chi.Router) {
					r.Get("/", h.getCanvas)
					r.Put("/", h.updateCanvas)
					r.Delete("/", h.deleteCanvas)
					r.Post("/archive", h.archiveCanvas)
					r.Post("/unarchive", h.unarchiveCanvas)
					r.Get("/shares", h.listShares)
					r.Post("/shares", h.shareCanvas)
					r.Delete("/shares/{userID}", h.unshareCanvas)
					r.Get("/context", h.canvasContext)
					r.Get("/nodes", h.listNodes)
					r.Post("/nodes", h.createNode)
					r.Put("/nodes/positions", h.updatePositions)
					r.Get("/chats", h.listChats)
					r.Post("/chats", h.createChat)
				})
			})

			r.Route("/nodes/{nodeID}", func(r chi.Router) {
				r.Get("/", h.getNode)
				r.Put("/", h.updateNode)
				r.Delete("/", h.deleteNode)
			})

			r.Route("/chats/{chatID}", func(r chi.Router) {
				r.Get("/", h.getChat)
				r.Put("/", h.renameChat)
				r.Delete("/", h.deleteChat)
				r.Post("/messages", h.sendMessage)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(dtmiddleware.NewAdminMiddleware(opts.Evaluator))
				r.Get("/users", h.listUsers)
				r.Put("/users/{userID}/role", h.setUserRole)
			})
		})
	})

	return r, nil
}

// accessLog logs one line per request and records request metrics when m is set.
func accessLog(logger zerolog.Logger, m *telemetry.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			event := logger.Info()
			if status >= 500 {
				event = logger.Error()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("route", route).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", elapsed).
				Msg("request")

			if m != nil {
				m.RecordRequest(r.Context(), r.Method, route, status, float64(elapsed.Microseconds())/1000)
			}
		})
	}
}
