package risk

import (
	"math"

	"github.com/sarlens/analyzer/internal/analysis"
)

// Scorer computes Assessments. The zero value is ready to use and clamps each
// sub-score into [0, cap].
type Scorer struct {
	unclamped bool
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithUnclampedLowerBound keeps negative raw sub-scores instead of flooring
// them at 0, reproducing legacy scores where only the upper cap applied. The
// composite can then fall below 0.
func WithUnclampedLowerBound() Option {
	return func(s *Scorer) { s.unclamped = true }
}

// NewScorer creates a Scorer.
func NewScorer(opts ...Option) Scorer {
	var s Scorer
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Score evaluates the statistics and category totals of one ledger. It is a
// pure function of its inputs.
func (s Scorer) Score(stats analysis.Statistics, totals analysis.CategoryTotals) Assessment {
	sub := SubScores{
		Outlier:    s.bound(outlierRaw(stats), OutlierCap),
		Volatility: s.bound(volatilityRaw(stats), VolatilityCap),
		Imbalance:  s.bound(imbalanceRaw(totals.Deposit(), totals.Withdrawal()), ImbalanceCap),
		Frequency:  s.bound(float64(stats.Count)/frequencyDivisor, FrequencyCap),
	}

	score := analysis.Round2(math.Min(sub.Sum(), ScoreCap))
	return Assessment{
		Score:     score,
		Level:     Classify(score),
		SubScores: sub,
	}
}

// outlierRaw: z-score of the largest transaction.
func outlierRaw(stats analysis.Statistics) float64 {
	if stats.StdDev == 0 {
		return 0
	}
	return (stats.Max - stats.Mean) / stats.StdDev * outlierWeight
}

// volatilityRaw: coefficient of variation.
func volatilityRaw(stats analysis.Statistics) float64 {
	if stats.Mean == 0 {
		return 0
	}
	return stats.StdDev / stats.Mean * volatilityWeight
}

// imbalanceRaw: share of directional flow that is not offset.
func imbalanceRaw(deposit, withdraw float64) float64 {
	flow := deposit + withdraw
	if flow == 0 {
		return 0
	}
	return math.Abs(deposit-withdraw) / flow * imbalanceWeight
}

func (s Scorer) bound(raw, limit float64) float64 {
	if math.IsNaN(raw) {
		return 0
	}
	v := math.Min(raw, limit)
	if v <= 0 && !s.unclamped {
		return 0
	}
	return v
}
