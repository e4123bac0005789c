package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"veridion/internal/auth/session"
	"veridion/internal/evidence/passport"
	"veridion/internal/platform/config"
	"veridion/internal/platform/httpserver"
	"veridion/internal/platform/logger"
	platformmetrics "veridion/internal/platform/metrics"
	profilehandler "veridion/internal/profile/handler"
	profileservice "veridion/internal/profile/service"
	verificationhandler "veridion/internal/verification/handler"
	verificationmetrics "veridion/internal/verification/metrics"
	"veridion/internal/verification/service"
)

// main wires the stores, providers and services, then runs the HTTP server
// and the ledger flusher until a shutdown signal arrives.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	ledgerStore, err := buildLedgerStore(ctx, cfg, infra)
	if err != nil {
		return err
	}
	contract := buildPassport(cfg)
	publisher, closePublisher, err := buildPublisher(ctx, cfg, contract, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	vMetrics := verificationmetrics.New()
	sessions := service.NewSessions(ledgerStore,
		service.WithPublisher(publisher),
		service.WithSessionsLogger(log),
		service.WithSessionsMetrics(vMetrics),
	)
	coordinator := service.NewCoordinator(sessions, log, vMetrics)
	horizon := buildHorizon(cfg, log)
	verifier := service.NewVerifier(coordinator, horizon, buildProviders(cfg, log),
		service.WithExternalTimeout(cfg.Verification.ExternalTimeout),
		service.WithTransactionCap(cfg.Stellar.MaxTransactions),
		service.WithVerifierLogger(log),
		service.WithVerifierMetrics(vMetrics),
	)
	flusher := service.NewFlusher(sessions, cfg.Verification.FlushInterval, log)

	profiles := profileservice.New(buildProfileStore(infra), sessions, log)
	tokens := session.NewTokenService(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.TTL)
	revocations := buildRevocations(infra)

	var passportHandler *passport.Handler
	if contract != nil {
		passportHandler = passport.NewHandler(contract, log)
	}

	router := newRouter(routerDeps{
		logger:       log,
		metrics:      platformmetrics.New(),
		tokens:       tokens,
		revocations:  revocations,
		health:       infra.Health,
		limiter:      buildLimiter(cfg, infra, log),
		sessions:     session.NewHandler(tokens, buildChallenges(cfg, infra), revocations, profiles, sessions, log),
		profiles:     profilehandler.New(profiles, coordinator, log),
		verification: verificationhandler.New(coordinator, verifier, log),
		accounts:     verificationhandler.NewAccounts(horizon, cfg.Verification.ExternalTimeout, log),
		passport:     passportHandler,
	})
	srv := httpserver.New(cfg.HTTP.Addr, router, cfg.Verification.ExternalTimeout)

	// The flusher outlives the server so its final pass sees the writes of
	// drained requests.
	flushCtx, stopFlusher := context.WithCancel(context.WithoutCancel(ctx))
	defer stopFlusher()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting veridion", "addr", cfg.HTTP.Addr, "ledger_store", cfg.LedgerStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return flusher.Run(flushCtx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("received interruption signal, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		defer stopFlusher()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
