package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/sarlens/analyzer/internal/domain"
)

type row struct {
	date   time.Time
	amount float64
	typ    string
	memo   string
}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	// Date range: 2024-01-08 to 2024-03-31.
	startDate := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	dayRange := int(endDate.Sub(startDate).Hours() / 24)

	randomTime := func() time.Time {
		day := rng.Intn(dayRange)
		hour := 8 + rng.Intn(12)
		minute := rng.Intn(60)
		return startDate.AddDate(0, 0, day).Add(
			time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute,
		)
	}

	// Salary account: steady deposits, ordinary spending.
	var steady []row
	for m := 0; m < 3; m++ {
		steady = append(steady, row{startDate.AddDate(0, m, 17), 3200, domain.TypeDeposit, "salary"})
	}
	for i := 0; i < 45; i++ {
		amt := math.Round((40+rng.Float64()*160)*100) / 100
		steady = append(steady, row{randomTime(), amt, domain.TypeWithdrawal, "card"})
	}
	writeLedger(baseDir, "ledger_steady.csv", []string{"Date", "Amount", "Type", "Memo"}, steady, isoDate)

	// Structuring: cash deposits kept just under the reporting threshold,
	// then one large outbound wire.
	var structuring []row
	for i := 0; i < 60; i++ {
		amt := math.Round((9000+rng.Float64()*950)*100) / 100
		structuring = append(structuring, row{randomTime(), amt, domain.TypeDeposit, "cash"})
	}
	structuring = append(structuring, row{endDate.Add(15 * time.Hour), 250000, domain.TypeWithdrawal, "wire"})
	writeLedger(baseDir, "ledger_structuring.csv", []string{"timestamp", "Amount", "Type", "Memo"}, structuring, isoDateTime)

	// Undetectable date header in US month-first format; the CLI prompts.
	var prompted []row
	for i := 0; i < 20; i++ {
		typ := domain.TypeDeposit
		if rng.Float64() < 0.5 {
			typ = domain.TypeWithdrawal
		}
		amt := math.Round((100+rng.Float64()*900)*100) / 100
		prompted = append(prompted, row{randomTime(), amt, typ, "transfer"})
	}
	writeLedger(baseDir, "ledger_posted.csv", []string{"Posted", "Amount", "Type", "Memo"}, prompted, usDate)
}

func isoDate(t time.Time) string     { return t.Format("2006-01-02") }
func isoDateTime(t time.Time) string { return t.Format("2006-01-02 15:04:05") }
func usDate(t time.Time) string      { return t.Format("01/02/2006") }

func writeLedger(baseDir, name string, header []string, rows []row, formatDate func(time.Time) string) {
	filePath := filepath.Join(baseDir, name)
	f, err := os.Create(filePath)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write(header)

	var deposits, withdrawals float64
	for _, r := range rows {
		w.Write([]string{
			formatDate(r.date),
			fmt.Sprintf("%.2f", r.amount),
			r.typ,
			r.memo,
		})
		if r.typ == domain.TypeDeposit {
			deposits += r.amount
		} else {
			withdrawals += r.amount
		}
	}

	fmt.Printf("Generated %d rows -> %s (deposits %.2f, withdrawals %.2f)\n", len(rows), name, deposits, withdrawals)
}

func findTestdataDir() string {
	candidates := []string{
		"testdata",
		"./testdata",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	// Fallback.
	return "testdata"
}
