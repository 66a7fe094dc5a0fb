package report

import (
	"time"

	"github.com/sarlens/analyzer/internal/analysis"
	"github.com/sarlens/analyzer/internal/domain"
	"github.com/sarlens/analyzer/internal/risk"
)

// AuditStatus tells the caller whether the run's audit record was persisted.
type AuditStatus struct {
	Saved bool   `json:"saved"`
	Error string `json:"error,omitempty"`
}

// Report is everything a scoring run produces.
type Report struct {
	RunID        string                    `json:"run_id"`
	LedgerSHA256 string                    `json:"ledger_sha256"`
	DateColumn   string                    `json:"date_column"`
	ScoredAt     time.Time                 `json:"scored_at"`
	Statistics   analysis.Statistics       `json:"statistics"`
	Summary      Summary                   `json:"summary"`
	Categories   []analysis.CategoryAmount `json:"categories"`
	Risk         risk.Assessment           `json:"risk"`
	Verdict      string                    `json:"verdict"`
	Narrative    string                    `json:"narrative"`
	Charts       Charts                    `json:"charts"`
	Audit        AuditStatus               `json:"audit"`
}

// Build assembles the presentation parts of a report from the scored inputs.
func Build(ledger domain.Ledger, stats analysis.Statistics, totals analysis.CategoryTotals, a risk.Assessment) (*Report, error) {
	narrative, err := Narrative(stats, a)
	if err != nil {
		return nil, err
	}
	return &Report{
		Statistics: stats,
		Summary:    NewSummary(stats),
		Categories: totals.Sorted(),
		Risk:       a,
		Verdict:    a.Level.Label(),
		Narrative:  narrative,
		Charts:     BuildCharts(ledger, totals),
	}, nil
}
