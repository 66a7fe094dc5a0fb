package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for ledger validation. Typed errors below unwrap to these.
var (
	ErrEmptyLedger        = errors.New("empty ledger")
	ErrMissingColumn      = errors.New("missing column")
	ErrDateParse          = errors.New("date parse error")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrDateColumnNotFound = errors.New("date column not detected")
	ErrMalformedLedger    = errors.New("malformed ledger")
)

// Error kinds reported to API clients and used as metric labels.
const (
	KindEmptyLedger        = "empty_ledger"
	KindMissingColumn      = "missing_column"
	KindDateParse          = "date_parse"
	KindInvalidAmount      = "invalid_amount"
	KindDateColumnNotFound = "date_column_not_found"
	KindMalformedLedger    = "malformed_ledger"
	KindInternal           = "internal"
)

type EmptyLedgerError struct{}

func (e *EmptyLedgerError) Error() string { return "ledger has no transactions" }
func (e *EmptyLedgerError) Unwrap() error { return ErrEmptyLedger }

type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing columns: [%s]", strings.Join(e.Columns, ", "))
}
func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

type DateParseError struct {
	Column string
	Line   int
	Value  string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("column %q cannot be converted to date: line %d value %q", e.Column, e.Line, e.Value)
}
func (e *DateParseError) Unwrap() error { return ErrDateParse }

type InvalidAmountError struct {
	Line  int
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("line %d: amount %q is not numeric", e.Line, e.Value)
}
func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// AmountOverflowError is returned when the amounts are individually finite
// but an aggregate over them is not representable.
type AmountOverflowError struct {
	Statistic string
}

func (e *AmountOverflowError) Error() string {
	return fmt.Sprintf("ledger amounts overflow the %s", e.Statistic)
}
func (e *AmountOverflowError) Unwrap() error { return ErrInvalidAmount }

// DateColumnNotFoundError is returned when no header matches a date candidate
// and no chooser could pick one.
type DateColumnNotFoundError struct {
	Available []string
}

func (e *DateColumnNotFoundError) Error() string {
	return fmt.Sprintf("date column not detected automatically; available columns: [%s]", strings.Join(e.Available, ", "))
}
func (e *DateColumnNotFoundError) Unwrap() error { return ErrDateColumnNotFound }

// MalformedLedgerError wraps a CSV syntax error.
type MalformedLedgerError struct {
	Err error
}

func (e *MalformedLedgerError) Error() string { return "malformed ledger: " + e.Err.Error() }
func (e *MalformedLedgerError) Unwrap() []error { return []error{ErrMalformedLedger, e.Err} }

// IsValidation reports whether err is a ledger input error the user must fix.
func IsValidation(err error) bool {
	return ErrorKind(err) != KindInternal
}

// ErrorKind maps err onto a stable kind string.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrEmptyLedger):
		return KindEmptyLedger
	case errors.Is(err, ErrMissingColumn):
		return KindMissingColumn
	case errors.Is(err, ErrDateParse):
		return KindDateParse
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ErrDateColumnNotFound):
		return KindDateColumnNotFound
	case errors.Is(err, ErrMalformedLedger):
		return KindMalformedLedger
	default:
		return KindInternal
	}
}
