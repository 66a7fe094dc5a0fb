package audit

import (
	"context"
	"errors"

	"github.com/sarlens/analyzer/internal/domain"
)

// Multi fans each record out to every sink. Every sink is attempted; the
// failures are joined.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Append(ctx context.Context, rec domain.AuditRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, rec); err != nil {
			var se *SinkError
			if !errors.As(err, &se) {
				err = &SinkError{Sink: sinkName(s), Err: err}
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
