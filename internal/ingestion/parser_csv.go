package ingestion

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sarlens/analyzer/internal/domain"
)

// Required ledger columns. Names are matched exactly after header trimming.
const (
	ColumnAmount = "Amount"
	ColumnType   = "Type"
)

// LoadOptions controls how the date column is resolved.
type LoadOptions struct {
	// DateColumn, when set, names the date column explicitly.
	DateColumn string
	// ChooseDateColumn is consulted when no header matches a date candidate.
	ChooseDateColumn DateColumnChooser
}

// LoadResult is a validated ledger plus what the loader learned about the file.
type LoadResult struct {
	Ledger     domain.Ledger
	Headers    []string
	Records    [][]string
	DateColumn string
	SHA256     string
}

// LoadCSV reads a comma separated ledger with a header row.
//
// Expected header (order free, extra columns ignored):
//
//	<date column>,Amount,Type
func LoadCSV(r io.Reader, opts LoadOptions) (*LoadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return ParseCSV(data, opts)
}

// ParseCSV is LoadCSV over an in-memory file.
func ParseCSV(data []byte, opts LoadOptions) (*LoadResult, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &domain.EmptyLedgerError{}
	}
	if err != nil {
		return nil, &domain.MalformedLedgerError{Err: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	idx := indexColumns(header)
	if missing := missingColumns(idx, ColumnAmount, ColumnType); len(missing) > 0 {
		return nil, &domain.MissingColumnError{Columns: missing}
	}

	dateCol, err := resolveDateColumn(header, opts)
	if err != nil {
		return nil, err
	}

	amountIdx, typeIdx, dateIdx := idx[ColumnAmount], idx[ColumnType], idx[dateCol]

	res := &LoadResult{
		Headers:    header,
		DateColumn: dateCol,
		SHA256:     fmt.Sprintf("%x", sha256.Sum256(data)),
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.MalformedLedgerError{Err: err}
		}
		line, _ := reader.FieldPos(0)

		dateStr := strings.TrimSpace(cell(row, dateIdx))
		date, err := parseDate(dateStr)
		if err != nil {
			return nil, &domain.DateParseError{Column: dateCol, Line: line, Value: dateStr}
		}

		amountStr := strings.TrimSpace(cell(row, amountIdx))
		amount, err := decimal.NewFromString(amountStr)
		if err != nil || math.IsInf(amount.InexactFloat64(), 0) {
			return nil, &domain.InvalidAmountError{Line: line, Value: amountStr}
		}

		res.Ledger = append(res.Ledger, domain.Transaction{
			Date:   date,
			Amount: amount,
			Type:   cell(row, typeIdx),
			Line:   line,
		})
		res.Records = append(res.Records, row)
	}

	if len(res.Ledger) == 0 {
		return nil, &domain.EmptyLedgerError{}
	}
	return res, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// indexColumns maps each header to its first position.
func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

func missingColumns(idx map[string]int, required ...string) []string {
	var missing []string
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
