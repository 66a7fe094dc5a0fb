package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarlens/analyzer/internal/domain"
)

// JSONLSink appends records to a line-delimited JSON file. Each Append opens
// the file, writes the full line with one write call and closes it.
type JSONLSink struct {
	path string
}

func NewJSONLSink(path string) *JSONLSink {
	return &JSONLSink{path: path}
}

func (s *JSONLSink) Name() string { return "jsonl" }

func (s *JSONLSink) Path() string { return s.path }

func (s *JSONLSink) Append(ctx context.Context, rec domain.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return &SinkError{Sink: s.Name(), Err: err}
	}
	line, err := EncodeLine(rec)
	if err != nil {
		return &SinkError{Sink: s.Name(), Err: err}
	}
	if err := s.write(line); err != nil {
		return &SinkError{Sink: s.Name(), Err: err}
	}
	return nil
}

func (s *JSONLSink) write(line []byte) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create audit directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write audit log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close audit log: %w", err)
	}
	return nil
}
