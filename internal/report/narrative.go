// Package report renders what a scoring run shows to an investigator.
package report

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/sarlens/analyzer/internal/analysis"
	"github.com/sarlens/analyzer/internal/risk"
)

const narrativeText = `
Customer transaction analysis indicates the following:

• Average Transaction: {{num .Mean}}
• Maximum Transaction: {{num .Max}}
• Standard Deviation: {{num .StdDev}}
• Transaction Count: {{.Count}}
• Final Risk Score: {{num .Score}}

The system detected outlier activity, volatility, and behavioral imbalance.
Further investigation is recommended based on calculated risk metrics.
`

var narrativeTmpl = template.Must(template.New("narrative").
	Funcs(template.FuncMap{"num": analysis.FormatNumber}).
	Parse(narrativeText))

type narrativeData struct {
	Mean   float64
	Max    float64
	StdDev float64
	Count  int
	Score  float64
}

// Narrative renders the fixed SAR narrative for a scored ledger.
func Narrative(stats analysis.Statistics, a risk.Assessment) (string, error) {
	var buf bytes.Buffer
	err := narrativeTmpl.Execute(&buf, narrativeData{
		Mean:   analysis.Round2(stats.Mean),
		Max:    stats.Max,
		StdDev: analysis.Round2(stats.StdDev),
		Count:  stats.Count,
		Score:  a.Score,
	})
	if err != nil {
		return "", fmt.Errorf("render narrative: %w", err)
	}
	return buf.String(), nil
}
