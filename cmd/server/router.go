package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"veridion/internal/auth/session"
	"veridion/internal/evidence/passport"
	platformmetrics "veridion/internal/platform/metrics"
	profilehandler "veridion/internal/profile/handler"
	"veridion/internal/ratelimit"
	verificationhandler "veridion/internal/verification/handler"
	"veridion/pkg/platform/httputil"
	authmw "veridion/pkg/platform/middleware/auth"
	"veridion/pkg/platform/middleware/metadata"
	"veridion/pkg/platform/middleware/request"
)

const healthTimeout = 2 * time.Second

type routerDeps struct {
	logger       *slog.Logger
	metrics      *platformmetrics.Metrics
	tokens       authmw.SessionValidator
	revocations  authmw.RevocationChecker
	health       func(ctx context.Context) map[string]error
	limiter      *ratelimit.Middleware
	sessions     *session.Handler
	profiles     *profilehandler.Handler
	verification *verificationhandler.Handler
	accounts     *verificationhandler.Accounts
	passport     *passport.Handler
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(request.RequestID)
	r.Use(request.Time)
	r.Use(chimw.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(d.metrics.Middleware)

	r.Get("/healthz", healthHandler(d.health))
	r.Handle("/metrics", platformmetrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		d.sessions.RegisterPublic(r.With(d.limiter.ByIP(ratelimit.ClassSession)))
		d.verification.RegisterPublic(r)
		d.accounts.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireSession(d.tokens, d.revocations, d.logger))
			d.sessions.Register(r)
			d.profiles.Register(r)
			if d.passport != nil {
				d.passport.Register(r)
			}
			d.verification.Register(r.With(d.limiter.ByIdentity(ratelimit.ClassVerification)))
		})
	})
	return r
}

func healthHandler(check func(ctx context.Context) map[string]error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			for name, err := range check(ctx) {
				if resp.Checks == nil {
					resp.Checks = map[string]string{}
				}
				if err != nil {
					resp.Status = "degraded"
					resp.Checks[name] = err.Error()
					continue
				}
				resp.Checks[name] = "ok"
			}
		}
		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
