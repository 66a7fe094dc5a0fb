package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sarlens/analyzer/internal/analysis"
	"github.com/sarlens/analyzer/internal/audit"
	"github.com/sarlens/analyzer/internal/domain"
	"github.com/sarlens/analyzer/internal/report"
	"github.com/sarlens/analyzer/internal/risk"
)

// Recorder receives scoring run outcomes. metrics.Collector implements it.
type Recorder interface {
	ObserveRun(level string, score float64, elapsed time.Duration)
	RunFailed(kind string)
	AuditFailed(sink string)
}

// Service runs the full scoring pipeline over an uploaded ledger: load,
// extract statistics, aggregate categories, score, render, audit.
type Service struct {
	scorer   risk.Scorer
	sink     audit.Sink
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new scoring service. sink and recorder may be nil.
func NewService(scorer risk.Scorer, sink audit.Sink, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		scorer:   scorer,
		sink:     sink,
		recorder: recorder,
		logger:   logger.With("component", "ingestion"),
		now:      time.Now,
	}
}

// Result bundles the report with the loaded ledger for callers that render it.
type Result struct {
	Report *report.Report
	Load   *LoadResult
}

// ScoreLedger validates and scores one ledger file. Validation errors are
// terminal: nothing is scored and no audit record is written. An audit
// failure is reported on the returned report and never fails the run.
func (s *Service) ScoreLedger(ctx context.Context, data []byte, opts LoadOptions) (*Result, error) {
	start := s.now()

	loaded, err := ParseCSV(data, opts)
	if err != nil {
		return nil, s.fail(ctx, "load ledger", err)
	}

	stats, err := analysis.Extract(loaded.Ledger)
	if err != nil {
		return nil, s.fail(ctx, "extract statistics", err)
	}
	totals := analysis.Aggregate(loaded.Ledger)
	assessment := s.scorer.Score(stats, totals)

	rep, err := report.Build(loaded.Ledger, stats, totals, assessment)
	if err != nil {
		return nil, s.fail(ctx, "build report", err)
	}

	scoredAt := s.now()
	rep.RunID = uuid.NewString()
	rep.LedgerSHA256 = loaded.SHA256
	rep.DateColumn = loaded.DateColumn
	rep.ScoredAt = scoredAt
	rep.Audit = s.appendAudit(ctx, domain.NewAuditRecord(scoredAt, assessment.Score, stats.Total, stats.Count))

	if s.recorder != nil {
		s.recorder.ObserveRun(string(assessment.Level), assessment.Score, scoredAt.Sub(start))
	}

	s.logger.InfoContext(ctx, "Ledger scored",
		"run_id", rep.RunID,
		"ledger_sha256", rep.LedgerSHA256,
		"transactions", stats.Count,
		"risk_score", assessment.Score,
		"level", assessment.Level,
		"outlier", assessment.SubScores.Outlier,
		"volatility", assessment.SubScores.Volatility,
		"imbalance", assessment.SubScores.Imbalance,
		"frequency", assessment.SubScores.Frequency,
		"audit_saved", rep.Audit.Saved)

	return &Result{Report: rep, Load: loaded}, nil
}

func (s *Service) appendAudit(ctx context.Context, rec domain.AuditRecord) report.AuditStatus {
	if s.sink == nil {
		return report.AuditStatus{Saved: false, Error: "audit disabled"}
	}
	if err := s.sink.Append(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "Audit append failed; score stands", "error", err)
		if s.recorder != nil {
			for _, name := range audit.FailedSinks(err) {
				s.recorder.AuditFailed(name)
			}
		}
		return report.AuditStatus{Saved: false, Error: err.Error()}
	}
	return report.AuditStatus{Saved: true}
}

func (s *Service) fail(ctx context.Context, step string, err error) error {
	kind := domain.ErrorKind(err)
	if s.recorder != nil {
		s.recorder.RunFailed(kind)
	}
	if kind == domain.KindInternal {
		s.logger.ErrorContext(ctx, "Scoring run failed", "step", step, "error", err)
		return fmt.Errorf("%s: %w", step, err)
	}
	s.logger.InfoContext(ctx, "Ledger rejected", "step", step, "kind", kind, "error", err)
	return err
}
