package audit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarlens/analyzer/internal/domain"
	"github.com/sarlens/analyzer/internal/repository"
)

type recordingSink struct {
	name    string
	err     error
	records []domain.AuditRecord
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Append(_ context.Context, rec domain.AuditRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func TestMulti_AttemptsEverySink(t *testing.T) {
	broken := &recordingSink{name: "broken", err: errors.New("disk full")}
	first := &recordingSink{name: "first"}
	last := &recordingSink{name: "last"}

	rec := domain.AuditRecord{Date: "2024-03-01 09:15:00", RiskScore: 21, Total: 500, Transactions: 5}
	err := Multi{first, broken, last}.Append(context.Background(), rec)
	require.Error(t, err)

	assert.Equal(t, []domain.AuditRecord{rec}, first.records)
	assert.Equal(t, []domain.AuditRecord{rec}, last.records)
	assert.Equal(t, []string{"broken"}, FailedSinks(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestMulti_AllSucceed(t *testing.T) {
	a, b := &recordingSink{name: "a"}, &recordingSink{name: "b"}
	require.NoError(t, Multi{a, b}.Append(context.Background(), domain.AuditRecord{Date: "d"}))
	assert.Len(t, a.records, 1)
	assert.Len(t, b.records, 1)
}

func TestFailedSinks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{name: "nil", err: nil, want: nil},
		{name: "single", err: &SinkError{Sink: "jsonl", Err: errors.New("x")}, want: []string{"jsonl"}},
		{name: "wrapped", err: fmt.Errorf("append: %w", &SinkError{Sink: "amqp", Err: errors.New("x")}), want: []string{"amqp"}},
		{
			name: "joined",
			err: errors.Join(
				&SinkError{Sink: "jsonl", Err: errors.New("x")},
				&SinkError{Sink: "sqlite", Err: errors.New("y")},
			),
			want: []string{"jsonl", "sqlite"},
		},
		{name: "untagged", err: errors.New("boom"), want: []string{"unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailedSinks(tt.err))
		})
	}
}

func TestSQLiteSink_Append(t *testing.T) {
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewAuditRepo(db)
	sink := NewSQLiteSink(repo)
	rec := domain.AuditRecord{Date: "2024-03-01 09:15:00", RiskScore: 21, Total: 500, Transactions: 5}

	require.NoError(t, Multi{sink}.Append(context.Background(), rec))

	got, err := repo.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []domain.AuditRecord{rec}, got)
}

type failingInserter struct{}

func (failingInserter) Insert(context.Context, domain.AuditRecord) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestSQLiteSink_Failure(t *testing.T) {
	sink := &SQLiteSink{repo: failingInserter{}}
	err := sink.Append(context.Background(), domain.AuditRecord{Date: "d"})
	assert.Equal(t, []string{"sqlite"}, FailedSinks(err))
}
