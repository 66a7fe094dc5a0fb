package report

import "github.com/sarlens/analyzer/internal/analysis"

// Summary is the dashboard summary block.
type Summary struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Maximum float64 `json:"maximum"`
	Minimum float64 `json:"minimum"`
	Count   int     `json:"transaction_count"`
}

func NewSummary(s analysis.Statistics) Summary {
	return Summary{
		Total:   analysis.Round2(s.Total),
		Average: analysis.Round2(s.Mean),
		Maximum: s.Max,
		Minimum: s.Min,
		Count:   s.Count,
	}
}
