package ingestion

import (
	"fmt"
	"strings"

	"github.com/sarlens/analyzer/internal/domain"
)

// DateColumnCandidates are the lower-cased header names recognised as the
// date column, in preference order.
var DateColumnCandidates = []string{"date", "time", "timestamp", "txn_date", "transaction_date"}

// DateColumnChooser picks the date column when none was detected. It returns
// an empty name to decline.
type DateColumnChooser func(headers []string) (string, error)

// DetectDateColumn returns the first header, in header order, whose
// lower-cased name is a date candidate.
func DetectDateColumn(headers []string) (string, bool) {
	for _, h := range headers {
		lower := strings.ToLower(h)
		for _, c := range DateColumnCandidates {
			if lower == c {
				return h, true
			}
		}
	}
	return "", false
}

func resolveDateColumn(headers []string, opts LoadOptions) (string, error) {
	if name := strings.TrimSpace(opts.DateColumn); name != "" {
		if !hasHeader(headers, name) {
			return "", &domain.MissingColumnError{Columns: []string{name}}
		}
		return name, nil
	}

	if name, ok := DetectDateColumn(headers); ok {
		return name, nil
	}

	if opts.ChooseDateColumn != nil {
		name, err := opts.ChooseDateColumn(headers)
		if err != nil {
			return "", fmt.Errorf("choose date column: %w", err)
		}
		name = strings.TrimSpace(name)
		if name != "" {
			if !hasHeader(headers, name) {
				return "", &domain.MissingColumnError{Columns: []string{name}}
			}
			return name, nil
		}
	}

	return "", &domain.DateColumnNotFoundError{Available: append([]string(nil), headers...)}
}

func hasHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
