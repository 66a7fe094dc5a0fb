// Command sarscore scores a transaction ledger CSV and prints the SAR
// report to stdout.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/sarlens/analyzer/internal/analysis"
	"github.com/sarlens/analyzer/internal/audit"
	"github.com/sarlens/analyzer/internal/config"
	"github.com/sarlens/analyzer/internal/domain"
	"github.com/sarlens/analyzer/internal/ingestion"
	"github.com/sarlens/analyzer/internal/logging"
	"github.com/sarlens/analyzer/internal/report"
	"github.com/sarlens/analyzer/internal/risk"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("sarscore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		file       = fs.String("file", "", "ledger CSV to score (- for stdin)")
		dateColumn = fs.String("date-column", "", "name of the date column (detected when empty)")
		auditLog   = fs.String("audit-log", cfg.AuditLogPath, "append-only audit log path")
		noAudit    = fs.Bool("no-audit", false, "do not write an audit record")
		asJSON     = fs.Bool("json", false, "print the report as JSON")
		showTable  = fs.Bool("table", false, "print the transaction table")
		compat     = fs.Bool("compat", cfg.ScorerUnclamped, "keep negative sub-scores as legacy scores did")
		logLevel   = fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" {
		fmt.Fprintln(stderr, "sarscore: -file is required")
		fs.Usage()
		return 2
	}

	logger := logging.NewWithWriter(stderr, *logLevel, cfg.LogFormat)

	data, err := readLedger(*file, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "sarscore: %v\n", err)
		return 1
	}

	var sink audit.Sink
	if !*noAudit {
		sink = audit.NewJSONLSink(*auditLog)
	}
	var opts []risk.Option
	if *compat {
		opts = append(opts, risk.WithUnclampedLowerBound())
	}
	svc := ingestion.NewService(risk.NewScorer(opts...), sink, nil, logger)

	loadOpts := ingestion.LoadOptions{DateColumn: *dateColumn}
	if *file != "-" {
		loadOpts.ChooseDateColumn = promptChooser(bufio.NewReader(stdin), stderr)
	}

	res, err := svc.ScoreLedger(context.Background(), data, loadOpts)
	if err != nil {
		reportError(stderr, err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Report); err != nil {
			fmt.Fprintf(stderr, "sarscore: encode report: %v\n", err)
			return 1
		}
	} else {
		if *showTable {
			printTable(stdout, res.Load)
		}
		printReport(stdout, res.Report)
	}

	if !*noAudit && !res.Report.Audit.Saved {
		fmt.Fprintf(stderr, "warning: audit record not saved: %s\n", res.Report.Audit.Error)
	}
	return 0
}

func readLedger(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return data, nil
}

// promptChooser asks on stdin for the date column, by name or 1-based index.
// An empty answer declines.
func promptChooser(in *bufio.Reader, out io.Writer) ingestion.DateColumnChooser {
	return func(headers []string) (string, error) {
		fmt.Fprintln(out, "Date column not detected automatically")
		for i, h := range headers {
			fmt.Fprintf(out, "  %d) %s\n", i+1, h)
		}
		fmt.Fprint(out, "Select date column: ")

		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read date column: %w", err)
		}
		choice := strings.TrimSpace(line)
		if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(headers) {
			return headers[n-1], nil
		}
		return choice, nil
	}
}

func reportError(w io.Writer, err error) {
	var dateErr *domain.DateParseError
	switch {
	case errors.As(err, &dateErr):
		fmt.Fprintf(w, "error: selected column cannot be converted to date (%v)\n", err)
	case domain.IsValidation(err):
		fmt.Fprintf(w, "error: %v\n", err)
	default:
		fmt.Fprintf(w, "sarscore: %v\n", err)
	}
}

func printTable(w io.Writer, loaded *ingestion.LoadResult) {
	fmt.Fprintln(w, "Transaction Data")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(loaded.Headers, "\t"))
	for _, rec := range loaded.Records {
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printReport(w io.Writer, rep *report.Report) {
	num := analysis.FormatNumber

	fmt.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  Total: %s\n", num(rep.Summary.Total))
	fmt.Fprintf(w, "  Average: %s\n", num(rep.Summary.Average))
	fmt.Fprintf(w, "  Maximum: %s\n", num(rep.Summary.Maximum))
	fmt.Fprintf(w, "  Minimum: %s\n", num(rep.Summary.Minimum))
	fmt.Fprintf(w, "  Transaction Count: %d\n", rep.Summary.Count)
	fmt.Fprintln(w)

	sub := rep.Risk.SubScores
	fmt.Fprintf(w, "Risk Score: %s\n", num(rep.Risk.Score))
	fmt.Fprintf(w, "  %s\n", rep.Verdict)
	fmt.Fprintf(w, "  outlier %s, volatility %s, imbalance %s, frequency %s\n",
		num(analysis.Round2(sub.Outlier)), num(analysis.Round2(sub.Volatility)),
		num(analysis.Round2(sub.Imbalance)), num(analysis.Round2(sub.Frequency)))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SAR Narrative")
	fmt.Fprintln(w, strings.TrimSpace(rep.Narrative))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Transaction Trend")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range rep.Charts.Trend {
		fmt.Fprintf(tw, "  %s\t%s\n", p.Date.Format("2006-01-02 15:04:05"), num(p.Amount))
	}
	tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Deposit vs Withdrawal")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range rep.Charts.ByType {
		share := "n/a"
		if s.SharePct != nil {
			share = strconv.FormatFloat(*s.SharePct, 'f', 0, 64) + "%"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", s.Type, num(s.Total), share)
	}
	tw.Flush()
	fmt.Fprintln(w)

	if rep.Audit.Saved {
		fmt.Fprintf(w, "Audit record saved (run %s)\n", rep.RunID)
	}
}
