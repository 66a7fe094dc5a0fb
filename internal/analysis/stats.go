// Package analysis computes the descriptive statistics and per-type totals
// that feed the risk scorer.
package analysis

import (
	"math"
	"strconv"
	"strings"

	"github.com/sarlens/analyzer/internal/domain"
)

// Statistics is a read-only aggregate over one ledger snapshot.
type Statistics struct {
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
	StdDev float64 `json:"stddev"`
	Count  int     `json:"count"`
}

// Extract computes Statistics over the ledger's amounts. StdDev is the sample
// standard deviation (n-1 denominator) and is 0 when the ledger has fewer
// than two rows. Aggregates that overflow float64 are rejected.
func Extract(ledger domain.Ledger) (Statistics, error) {
	if len(ledger) == 0 {
		return Statistics{}, &domain.EmptyLedgerError{}
	}
	s := extract(ledger.Amounts())
	for _, agg := range []struct {
		name  string
		value float64
	}{
		{"total", s.Total},
		{"mean", s.Mean},
		{"standard deviation", s.StdDev},
	} {
		if !isFinite(agg.value) {
			return Statistics{}, &domain.AmountOverflowError{Statistic: agg.name}
		}
	}
	return s, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func extract(amounts []float64) Statistics {
	s := Statistics{
		Count: len(amounts),
		Max:   amounts[0],
		Min:   amounts[0],
	}
	for _, a := range amounts {
		s.Total += a
		if a > s.Max {
			s.Max = a
		}
		if a < s.Min {
			s.Min = a
		}
	}
	s.Mean = s.Total / float64(s.Count)

	if s.Count > 1 {
		var sq float64
		for _, a := range amounts {
			d := a - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(s.Count-1))
	}
	return s
}

// Round2 rounds v to two decimals using the shortest correctly rounded
// decimal representation, so ties resolve on the exact binary value.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatNumber prints v in its shortest round-trip form the way Python's
// float repr does: exponent form below 1e-4 and from 1e16 up, otherwise
// fixed notation with a trailing ".0" on integral values.
func FormatNumber(v float64) string {
	if abs := math.Abs(v); abs != 0 && isFinite(v) && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
