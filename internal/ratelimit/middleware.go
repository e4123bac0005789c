package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"veridion/pkg/platform/httputil"
	"veridion/pkg/requestcontext"
)

type exceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

// Middleware admits or rejects requests per class. Store failures let the
// request through.
type Middleware struct {
	store    Store
	limits   map[Class]Limit
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every check into a pass.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

// WithLimit sets the limit of one class.
func WithLimit(class Class, limit Limit) Option {
	return func(m *Middleware) { m.limits[class] = limit }
}

func New(store Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{store: store, limits: map[Class]Limit{}, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// ByIP limits by client address. Use on public routes.
func (m *Middleware) ByIP(class Class) func(http.Handler) http.Handler {
	return m.limit(class, func(r *http.Request) string {
		return "ip:" + requestcontext.ClientIP(r.Context())
	})
}

// ByIdentity limits by session wallet, falling back to the client address
// when the request carries no session.
func (m *Middleware) ByIdentity(class Class) func(http.Handler) http.Handler {
	return m.limit(class, func(r *http.Request) string {
		if id := requestcontext.Identity(r.Context()); !id.IsZero() {
			return "id:" + id.String()
		}
		return "ip:" + requestcontext.ClientIP(r.Context())
	})
}

func (m *Middleware) limit(class Class, keyOf func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limit, ok := m.limits[class]
		if m.disabled || !ok || limit.Requests <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := string(class) + ":" + keyOf(r)

			result, err := m.store.Allow(ctx, key, limit)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"request_id", requestcontext.RequestID(ctx),
					"class", class,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"class", class,
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, exceededResponse{
					Error:            "rate_limit_exceeded",
					ErrorDescription: "Too many requests. Please try again later.",
					RetryAfter:       result.RetryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
