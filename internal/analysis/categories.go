package analysis

import (
	"sort"

	"github.com/sarlens/analyzer/internal/domain"
)

// CategoryTotals maps a transaction type label to its summed amount.
type CategoryTotals map[string]float64

// CategoryAmount is one row of CategoryTotals in label order.
type CategoryAmount struct {
	Type  string  `json:"type"`
	Total float64 `json:"total"`
}

// Aggregate sums amounts per transaction type. Labels are kept verbatim.
func Aggregate(ledger domain.Ledger) CategoryTotals {
	totals := make(CategoryTotals)
	for _, t := range ledger {
		totals[t.Type] += t.AmountFloat()
	}
	return totals
}

// Deposit returns the "Deposit" total, or 0 when that label is absent.
func (c CategoryTotals) Deposit() float64 { return c[domain.TypeDeposit] }

// Withdrawal returns the "Withdrawal" total, or 0 when that label is absent.
func (c CategoryTotals) Withdrawal() float64 { return c[domain.TypeWithdrawal] }

// Sorted returns the totals ordered by label.
func (c CategoryTotals) Sorted() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(c))
	for k, v := range c {
		out = append(out, CategoryAmount{Type: k, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
