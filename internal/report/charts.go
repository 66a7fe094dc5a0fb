package report

import (
	"math"
	"time"

	"github.com/sarlens/analyzer/internal/analysis"
	"github.com/sarlens/analyzer/internal/domain"
)

// TrendPoint is one point of the transaction trend line.
type TrendPoint struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// TypeSlice is one bar of the per-type chart and one wedge of the pie.
type TypeSlice struct {
	Type  string  `json:"type"`
	Total float64 `json:"total"`
	// SharePct is nil when the totals cannot be drawn as a pie.
	SharePct *float64 `json:"share_pct,omitempty"`
}

// Charts holds the series behind the three dashboard charts.
type Charts struct {
	Trend  []TrendPoint `json:"trend"`
	ByType []TypeSlice  `json:"by_type"`
}

// BuildCharts derives chart series. Trend keeps ingestion order; ByType is
// ordered by label.
func BuildCharts(ledger domain.Ledger, totals analysis.CategoryTotals) Charts {
	c := Charts{
		Trend:  make([]TrendPoint, 0, len(ledger)),
		ByType: make([]TypeSlice, 0, len(totals)),
	}
	for _, t := range ledger {
		c.Trend = append(c.Trend, TrendPoint{Date: t.Date, Amount: t.AmountFloat()})
	}

	sorted := totals.Sorted()
	var sum float64
	drawable := true
	for _, ca := range sorted {
		if ca.Total < 0 {
			drawable = false
		}
		sum += ca.Total
	}
	drawable = drawable && sum > 0

	for _, ca := range sorted {
		slice := TypeSlice{Type: ca.Type, Total: ca.Total}
		if drawable {
			pct := math.RoundToEven(ca.Total / sum * 100)
			slice.SharePct = &pct
		}
		c.ByType = append(c.ByType, slice)
	}
	return c
}
