package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpadapter "scorify/internal/adapters/http"
	pg "scorify/internal/adapters/postgres"
	"scorify/internal/auth"
	"scorify/internal/config"
	"scorify/internal/logging"
	"scorify/internal/metrics"
	"scorify/internal/ports"
	"scorify/internal/services/accounts"
	"scorify/internal/services/customers"
	"scorify/internal/services/reports"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogJSON)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	// Wire repositories to services (ports)
	var _ ports.InteractionRepository = db
	var _ ports.ScoreRepository = db
	var _ ports.UserRepository = db
	var _ ports.CustomerRepository = db

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		return err
	}

	tokens := auth.NewIssuer(cfg.JWTSecret)
	srv := httpadapter.New(
		reports.New(db, db, cfg.Location()),
		accounts.New(db, tokens),
		customers.New(db),
		tokens,
		httpadapter.WithLogger(log),
		httpadapter.WithGatherer(reg),
		httpadapter.WithHealthCheck(db.Ping),
		httpadapter.WithSecureCookie(cfg.Production()),
	)

	server := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Routes()}
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env, "timezone", cfg.ReportTimezone)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
