package domain

import (
	"fmt"
	"time"
)

// AuditRecord is one append-only audit log line written after a successful
// scoring run. The JSON field set is fixed; downstream consumers rely on it.
type AuditRecord struct {
	Date         string  `json:"date"`
	RiskScore    float64 `json:"risk_score"`
	Total        float64 `json:"total"`
	Transactions int     `json:"transactions"`
}

// NewAuditRecord stamps a record with the given local time.
func NewAuditRecord(at time.Time, riskScore, total float64, count int) AuditRecord {
	return AuditRecord{
		Date:         FormatAuditTime(at),
		RiskScore:    riskScore,
		Total:        total,
		Transactions: count,
	}
}

// FormatAuditTime renders t as "2006-01-02 15:04:05.000000" in local time.
// The fractional part is dropped when the microsecond component is zero.
func FormatAuditTime(t time.Time) string {
	t = t.Local()
	base := t.Format("2006-01-02 15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		return fmt.Sprintf("%s.%06d", base, us)
	}
	return base
}
