package audit

import (
	"context"

	"github.com/sarlens/analyzer/internal/domain"
	"github.com/sarlens/analyzer/internal/repository"
)

type recordInserter interface {
	Insert(ctx context.Context, rec domain.AuditRecord) (int64, error)
}

// SQLiteSink mirrors audit records into the audit_records table.
type SQLiteSink struct {
	repo recordInserter
}

func NewSQLiteSink(repo *repository.AuditRepo) *SQLiteSink {
	return &SQLiteSink{repo: repo}
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Append(ctx context.Context, rec domain.AuditRecord) error {
	if _, err := s.repo.Insert(ctx, rec); err != nil {
		return &SinkError{Sink: s.Name(), Err: err}
	}
	return nil
}
