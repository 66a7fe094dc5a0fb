// Package risk implements the composite SAR risk score.
//
// A ledger is scored on four independently capped sub-scores: outlier
// (extreme single transaction), volatility (dispersion relative to the mean),
// imbalance (deposit vs withdrawal direction) and frequency (volume). The sum
// is capped at 100 and rounded to two decimals. The caps and formulas are
// policy and must not drift.
package risk

// Level is the classification band of a risk score.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Band thresholds; each is inclusive on its lower bound.
const (
	HighThreshold   = 60.0
	MediumThreshold = 40.0
)

// Sub-score caps.
const (
	OutlierCap    = 40.0
	VolatilityCap = 20.0
	ImbalanceCap  = 20.0
	FrequencyCap  = 20.0
	ScoreCap      = 100.0
)

// Sub-score multipliers.
const (
	outlierWeight    = 5.0
	volatilityWeight = 20.0
	imbalanceWeight  = 20.0
	frequencyDivisor = 5.0
)

// SubScores are the four capped contributors to a risk score.
type SubScores struct {
	Outlier    float64 `json:"outlier"`
	Volatility float64 `json:"volatility"`
	Imbalance  float64 `json:"imbalance"`
	Frequency  float64 `json:"frequency"`
}

// Sum adds the four sub-scores.
func (s SubScores) Sum() float64 {
	return s.Outlier + s.Volatility + s.Imbalance + s.Frequency
}

// Assessment is the result of scoring one ledger.
type Assessment struct {
	Score     float64   `json:"score"`
	Level     Level     `json:"level"`
	SubScores SubScores `json:"sub_scores"`
}

// Classify maps a score onto its band.
func Classify(score float64) Level {
	switch {
	case score >= HighThreshold:
		return LevelHigh
	case score >= MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Label is the human readable account verdict for the level.
func (l Level) Label() string {
	switch l {
	case LevelHigh:
		return "High Risk Account"
	case LevelMedium:
		return "Medium Risk Account"
	default:
		return "Low Risk Account"
	}
}
