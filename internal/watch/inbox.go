// Package watch scores ledgers dropped into an inbox directory.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sarlens/analyzer/internal/domain"
	"github.com/sarlens/analyzer/internal/ingestion"
)

// DefaultSettle is how long a file must stay quiet before it is scored.
const DefaultSettle = 500 * time.Millisecond

const (
	reportSuffix = ".report.json"
	errorSuffix  = ".error.json"
)

type Scorer interface {
	ScoreLedger(ctx context.Context, data []byte, opts ingestion.LoadOptions) (*ingestion.Result, error)
}

// Inbox watches one directory. Each *.csv file gets a sibling
// <name>.report.json, or <name>.error.json when the ledger is rejected.
type Inbox struct {
	dir    string
	settle time.Duration
	scorer Scorer
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewInbox(dir string, settle time.Duration, scorer Scorer, logger *slog.Logger) *Inbox {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		dir:     dir,
		settle:  settle,
		scorer:  scorer,
		logger:  logger.With("component", "watch", "dir", dir),
		pending: make(map[string]*time.Timer),
	}
}

// Run scores ledgers already waiting in the inbox, then every ledger created
// or rewritten there, until ctx is done.
func (in *Inbox) Run(ctx context.Context) error {
	if err := os.MkdirAll(in.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(in.dir); err != nil {
		return fmt.Errorf("watch %s: %w", in.dir, err)
	}

	ready := make(chan string, 16)
	defer in.stopTimers()

	if err := in.sweep(ctx); err != nil {
		return err
	}
	in.logger.Info("Watching inbox for ledgers")

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) && isLedger(ev.Name) {
				in.schedule(ctx, ev.Name, ready)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Warn("Watcher error", "error", err)

		case path := <-ready:
			in.process(ctx, path)
		}
	}
}

// schedule (re)starts the settle timer for path.
func (in *Inbox) schedule(ctx context.Context, path string, ready chan<- string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if t, ok := in.pending[path]; ok {
		t.Stop()
	}
	in.pending[path] = time.AfterFunc(in.settle, func() {
		in.mu.Lock()
		delete(in.pending, path)
		in.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (in *Inbox) stopTimers() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for path, t := range in.pending {
		t.Stop()
		delete(in.pending, path)
	}
}

func (in *Inbox) sweep(ctx context.Context) error {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}
	for _, e := range entries {
		path := filepath.Join(in.dir, e.Name())
		if e.IsDir() || !isLedger(path) || hasOutput(path) {
			continue
		}
		in.process(ctx, path)
	}
	return nil
}

func (in *Inbox) process(ctx context.Context, path string) {
	logger := in.logger.With("file", filepath.Base(path))

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to read ledger", "error", err)
		return
	}

	res, err := in.scorer.ScoreLedger(ctx, data, ingestion.LoadOptions{})
	if err != nil {
		out := map[string]string{"error": err.Error(), "kind": domain.ErrorKind(err)}
		if werr := writeJSONFile(outputPath(path, errorSuffix), out); werr != nil {
			logger.Error("Failed to write error file", "error", werr)
		}
		os.Remove(outputPath(path, reportSuffix))
		logger.Info("Ledger rejected", "kind", out["kind"])
		return
	}

	if err := writeJSONFile(outputPath(path, reportSuffix), res.Report); err != nil {
		logger.Error("Failed to write report", "error", err)
		return
	}
	os.Remove(outputPath(path, errorSuffix))
	logger.Info("Ledger report written", "run_id", res.Report.RunID, "risk_score", res.Report.Risk.Score)
}

func isLedger(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func outputPath(ledger, suffix string) string {
	return strings.TrimSuffix(ledger, filepath.Ext(ledger)) + suffix
}

// hasOutput reports whether ledger already has a report or error file no
// older than itself.
func hasOutput(ledger string) bool {
	src, err := os.Stat(ledger)
	if err != nil {
		return false
	}
	for _, suffix := range []string{reportSuffix, errorSuffix} {
		if out, err := os.Stat(outputPath(ledger, suffix)); err == nil && !out.ModTime().Before(src.ModTime()) {
			return true
		}
	}
	return false
}

// writeJSONFile replaces path with the encoded value via a temp file.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
