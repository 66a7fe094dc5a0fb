package audit

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarlens/analyzer/internal/domain"
)

func TestEncodeLine(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.AuditRecord
		want string
	}{
		{
			name: "whole numbers keep a decimal point",
			rec:  domain.AuditRecord{Date: "2024-03-01 09:15:00", RiskScore: 21, Total: 500, Transactions: 5},
			want: `{"date": "2024-03-01 09:15:00", "risk_score": 21.0, "total": 500.0, "transactions": 5}` + "\n",
		},
		{
			name: "fractional values",
			rec:  domain.AuditRecord{Date: "2024-03-01 09:15:00.123456", RiskScore: 64.37, Total: -20.5, Transactions: 12},
			want: `{"date": "2024-03-01 09:15:00.123456", "risk_score": 64.37, "total": -20.5, "transactions": 12}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeLine(tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestEncodeLine_RejectsNonFinite(t *testing.T) {
	for _, rec := range []domain.AuditRecord{
		{Date: "d", RiskScore: 0.4, Total: math.Inf(1), Transactions: 2},
		{Date: "d", RiskScore: math.NaN(), Total: 10, Transactions: 2},
	} {
		_, err := EncodeLine(rec)
		assert.Error(t, err)
	}
}

func TestEncodeLine_LargeValuesStayValidJSON(t *testing.T) {
	line, err := EncodeLine(domain.AuditRecord{Date: "d", RiskScore: 30, Total: 1e16, Transactions: 3})
	require.NoError(t, err)
	assert.Equal(t, `{"date": "d", "risk_score": 30.0, "total": 1e+16, "transactions": 3}`+"\n", string(line))
	assert.True(t, json.Valid(line))
}

func TestJSONLSink_NonFiniteRecordLeavesLogUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.json")
	sink := NewJSONLSink(path)

	err := sink.Append(context.Background(), domain.AuditRecord{Date: "d", Total: math.Inf(1), Transactions: 1})
	assert.Equal(t, []string{"jsonl"}, FailedSinks(err))
	assert.NoFileExists(t, path)
}

func TestJSONLSink_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.json")
	sink := NewJSONLSink(path)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, domain.AuditRecord{Date: "2024-03-01 09:15:00", RiskScore: 21, Total: 500, Transactions: 5}))
	require.NoError(t, sink.Append(ctx, domain.AuditRecord{Date: "2024-03-01 09:16:00", RiskScore: 30, Total: 0, Transactions: 100}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"date": "2024-03-01 09:15:00", "risk_score": 21.0, "total": 500.0, "transactions": 5}`, lines[0])
	assert.Equal(t, `{"date": "2024-03-01 09:16:00", "risk_score": 30.0, "total": 0.0, "transactions": 100}`, lines[1])
}

func TestJSONLSink_KeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.json")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))

	sink := NewJSONLSink(path)
	require.NoError(t, sink.Append(context.Background(), domain.AuditRecord{Date: "d", Transactions: 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "previous\n"))
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestJSONLSink_Errors(t *testing.T) {
	t.Run("unwritable path", func(t *testing.T) {
		dir := t.TempDir()
		sink := NewJSONLSink(dir) // a directory cannot be opened for writing

		err := sink.Append(context.Background(), domain.AuditRecord{Date: "d"})
		require.Error(t, err)

		var se *SinkError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "jsonl", se.Sink)
	})

	t.Run("cancelled context", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit.json")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewJSONLSink(path).Append(ctx, domain.AuditRecord{Date: "d"})
		require.ErrorIs(t, err, context.Canceled)
		assert.NoFileExists(t, path)
	})
}
