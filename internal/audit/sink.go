// Package audit appends one record per successful scoring run to one or more
// append-only destinations.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/sarlens/analyzer/internal/analysis"
	"github.com/sarlens/analyzer/internal/domain"
)

// Sink is an append-only audit destination. Append must write the whole
// record or nothing.
type Sink interface {
	Append(ctx context.Context, rec domain.AuditRecord) error
}

// Named sinks report a stable name in errors and metrics.
type Named interface {
	Name() string
}

// SinkError tags an append failure with the sink that produced it.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string { return fmt.Sprintf("audit sink %s: %v", e.Sink, e.Err) }
func (e *SinkError) Unwrap() error { return e.Err }

// FailedSinks lists the sink names found in err.
func FailedSinks(err error) []string {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SinkError); ok {
		return []string{se.Sink}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var names []string
		for _, e := range joined.Unwrap() {
			names = append(names, FailedSinks(e)...)
		}
		return names
	}
	if inner := errors.Unwrap(err); inner != nil {
		return FailedSinks(inner)
	}
	return []string{"unknown"}
}

// EncodeLine renders rec as one JSON line with the key order and spacing of
// the historical audit.json files.
func EncodeLine(rec domain.AuditRecord) ([]byte, error) {
	if !finite(rec.RiskScore) || !finite(rec.Total) {
		return nil, fmt.Errorf("encode record: non-finite value (risk_score %v, total %v)", rec.RiskScore, rec.Total)
	}
	date, err := json.Marshal(rec.Date)
	if err != nil {
		return nil, fmt.Errorf("encode date: %w", err)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"date": %s, "risk_score": %s, "total": %s, "transactions": %d}`+"\n",
		date, analysis.FormatNumber(rec.RiskScore), analysis.FormatNumber(rec.Total), rec.Transactions)
	return buf.Bytes(), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sinkName(s Sink) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
