package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sarlens/analyzer/internal/domain"
)

// DefaultRecentLimit bounds Recent when the caller passes a non-positive limit.
const DefaultRecentLimit = 50

// AuditRepo stores audit records. The table rejects UPDATE and DELETE, so
// the repository only exposes inserts and reads.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert appends one record and returns its row id.
func (r *AuditRepo) Insert(ctx context.Context, rec domain.AuditRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_records (date, risk_score, total, transactions)
		VALUES (?,?,?,?)`,
		rec.Date, rec.RiskScore, rec.Total, rec.Transactions,
	)
	if err != nil {
		return 0, fmt.Errorf("insert audit record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit records, newest first.
func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT date, risk_score, total, transactions
		FROM audit_records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	records := []domain.AuditRecord{}
	for rows.Next() {
		var rec domain.AuditRecord
		if err := rows.Scan(&rec.Date, &rec.RiskScore, &rec.Total, &rec.Transactions); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (r *AuditRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
