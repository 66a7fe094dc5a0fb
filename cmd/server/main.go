package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/sarlens/analyzer/internal/api"
	"github.com/sarlens/analyzer/internal/audit"
	"github.com/sarlens/analyzer/internal/config"
	"github.com/sarlens/analyzer/internal/ingestion"
	"github.com/sarlens/analyzer/internal/logging"
	"github.com/sarlens/analyzer/internal/metrics"
	"github.com/sarlens/analyzer/internal/repository"
	"github.com/sarlens/analyzer/internal/risk"
	"github.com/sarlens/analyzer/internal/watch"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks, err := openSinks(cfg, logger)
	if err != nil {
		return err
	}
	defer sinks.close(logger)

	var opts []risk.Option
	if cfg.ScorerUnclamped {
		logger.Warn("Scorer lower bound disabled; sub-scores may be negative")
		opts = append(opts, risk.WithUnclampedLowerBound())
	}

	collector := metrics.NewCollector(logger)
	svc := ingestion.NewService(risk.NewScorer(opts...), sinks.sink, collector, logger)
	router := api.NewRouter(svc, sinks.repo, collector, logger, cfg.MaxUploadBytes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("SAR ledger analyzer listening",
			"addr", srv.Addr,
			"audit_sinks", cfg.AuditSinks,
			"endpoints", []string{
				"POST /api/v1/ledgers/score",
				"GET /api/v1/audit",
				"GET /healthz",
				"GET /metrics",
			})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("Server stopped")
		return nil
	})

	if cfg.WatchDir != "" {
		inbox := watch.NewInbox(cfg.WatchDir, cfg.WatchSettle, svc, logger)
		g.Go(func() error {
			if err := inbox.Run(gctx); err != nil {
				return fmt.Errorf("inbox watcher: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

type auditSinks struct {
	sink    audit.Sink
	repo    *repository.AuditRepo
	closers []io.Closer
}

func (s *auditSinks) close(logger *slog.Logger) {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close audit sink", "error", err)
		}
	}
}

// openSinks builds the audit fan-out named by AUDIT_SINKS.
func openSinks(cfg *config.Config, logger *slog.Logger) (*auditSinks, error) {
	out := &auditSinks{}
	var multi audit.Multi

	for _, name := range cfg.AuditSinks {
		switch name {
		case config.SinkJSONL:
			logger.Info("Audit log enabled", "sink", name, "path", cfg.AuditLogPath)
			multi = append(multi, audit.NewJSONLSink(cfg.AuditLogPath))

		case config.SinkSQLite:
			logger.Info("Initializing database", "sink", name, "path", cfg.SQLitePath)
			db, err := repository.InitDB(cfg.SQLitePath)
			if err != nil {
				out.close(logger)
				return nil, fmt.Errorf("init audit database: %w", err)
			}
			out.closers = append(out.closers, db)
			out.repo = repository.NewAuditRepo(db)
			multi = append(multi, audit.NewSQLiteSink(out.repo))

		case config.SinkAMQP:
			logger.Info("Connecting to AMQP", "sink", name, "exchange", cfg.AMQPExchange)
			pub, err := audit.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
			if err != nil {
				out.close(logger)
				return nil, fmt.Errorf("connect audit broker: %w", err)
			}
			out.closers = append(out.closers, pub)
			multi = append(multi, pub)
		}
	}

	if len(multi) > 0 {
		out.sink = multi
	} else {
		logger.Warn("No audit sinks configured; scoring runs will not be recorded")
	}
	return out, nil
}
