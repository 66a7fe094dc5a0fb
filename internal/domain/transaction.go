package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known transaction type labels. Matching is exact and case-sensitive.
const (
	TypeDeposit    = "Deposit"
	TypeWithdrawal = "Withdrawal"
)

// Transaction is one ledger row.
type Transaction struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
	// Line is the 1-based source line the row was read from.
	Line int `json:"-"`
}

// AmountFloat returns the amount as the nearest float64.
func (t Transaction) AmountFloat() float64 {
	return t.Amount.InexactFloat64()
}

// Ledger is the full set of transactions for one scoring run, in ingestion order.
type Ledger []Transaction

// Amounts returns the amount series in ingestion order.
func (l Ledger) Amounts() []float64 {
	out := make([]float64, len(l))
	for i, t := range l {
		out[i] = t.AmountFloat()
	}
	return out
}
