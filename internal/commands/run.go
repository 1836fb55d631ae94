package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/paydesk/reconcile/internal/config"
	"github.com/paydesk/reconcile/internal/model"
	"github.com/paydesk/reconcile/internal/recon"
	"github.com/paydesk/reconcile/internal/runlog"
	"github.com/paydesk/reconcile/internal/source"
	"github.com/paydesk/reconcile/internal/window"
)

func newRunCommand() *cobra.Command {
	var (
		root          string
		operator      string
		fromStr       string
		toStr         string
		sessionsPath  string
		overridesPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile an operator's period and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), cmd.OutOrStdout(),
				root, operator, fromStr, toStr, sessionsPath, overridesPath)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "project root")
	cmd.Flags().StringVar(&operator, "operator", "", "operator ID (required)")
	_ = cmd.MarkFlagRequired("operator")
	cmd.Flags().StringVar(&fromStr, "from", "", "period start, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&toStr, "to", "", "period end, YYYY-MM-DD exclusive (default start+1 day)")
	cmd.Flags().StringVar(&sessionsPath, "sessions", "", "sessions file (default <root>/sessions.yaml)")
	cmd.Flags().StringVar(&overridesPath, "overrides", "", "JSON window overrides file, bypasses the sessions file")

	return cmd
}

func runReconcile(ctx context.Context, w io.Writer, root, operator, fromStr, toStr, sessionsPath, overridesPath string) error {
	cfg, err := config.Load(filepath.Join(root, "reconcile.yaml"))
	if err != nil {
		return err
	}

	src, closeSrc, err := buildSource(root, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	o := recon.New(src, recon.Options{
		ClockOffset:              cfg.Reconciliation.ClockOffset.Std(),
		Tolerance:                cfg.Reconciliation.MatchTolerance.Std(),
		MaxWorkers:               cfg.Fetch.MaxWorkers,
		FetchTimeout:             cfg.Fetch.Timeout.Std(),
		FetchRate:                cfg.Fetch.RatePerSec,
		IncludeUnmatchedInTotals: cfg.Reconciliation.IncludeUnmatchedInTotals,
		Logger:                   log.Logger,
	})

	var report *recon.Report
	if overridesPath != "" {
		raw, err := os.ReadFile(overridesPath)
		if err != nil {
			return fmt.Errorf("reading overrides: %w", err)
		}
		sessions := window.ParseOverrides(raw, operator, log.Logger)
		report, err = o.Reconcile(ctx, operator, sessions)
		if err != nil {
			return err
		}
	} else {
		from, to, err := parsePeriod(fromStr, toStr, time.Now())
		if err != nil {
			return err
		}

		path := sessionsPath
		if path == "" {
			path = filepath.Join(root, "sessions.yaml")
		}
		sessFile, err := source.LoadSessionFile(path)
		if err != nil {
			return err
		}

		report, err = o.ReconcilePeriod(ctx, sessFile, operator, from, to)
		if err != nil {
			return err
		}
	}

	renderReport(w, report)
	return appendRunLog(root, operator, report)
}

// buildSource picks the record source from config. The returned closer is
// always non-nil.
func buildSource(root string, cfg *config.Config) (recon.RecordSource, func() error, error) {
	switch cfg.Sources.Kind {
	case "csv", "":
		src := source.NewCSVSource(source.DefaultRegistry())
		if err := src.LoadDir(model.PlatformIdex, resolvePath(root, cfg.Sources.IdexCSV)); err != nil {
			return nil, nil, err
		}
		if err := src.LoadDir(model.PlatformExchange, resolvePath(root, cfg.Sources.ExchangeCSV)); err != nil {
			return nil, nil, err
		}
		return src, func() error { return nil }, nil
	case "postgres":
		pg, err := source.OpenPostgres(cfg.Sources.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Sources.Kind)
	}
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func parsePeriod(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	from := now.UTC().Truncate(24 * time.Hour)
	if fromStr != "" {
		t, err := time.Parse(time.DateOnly, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing --from: %w", err)
		}
		from = t
	}

	to := from.AddDate(0, 0, 1)
	if toStr != "" {
		t, err := time.Parse(time.DateOnly, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing --to: %w", err)
		}
		to = t
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("period end %s before start %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	return from, to, nil
}

func renderReport(w io.Writer, r *recon.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "operator\t%s\n", r.OperatorID)
	fmt.Fprintf(tw, "matched\t%d\n", r.Summary.MatchedCount)
	fmt.Fprintf(tw, "total transactions\t%d\n", r.Summary.TotalTransactions)
	fmt.Fprintf(tw, "unmatched idex\t%d\n", len(r.UnmatchedIdex))
	fmt.Fprintf(tw, "unmatched exchange\t%d\n", len(r.UnmatchedExchange))
	fmt.Fprintf(tw, "gross income\t%s\n", r.Summary.GrossIncome.StringFixed(2))
	fmt.Fprintf(tw, "gross expense\t%s\n", r.Summary.GrossExpense.StringFixed(2))
	fmt.Fprintf(tw, "gross profit\t%s\n", r.Summary.GrossProfit.StringFixed(2))
	fmt.Fprintf(tw, "profit %%\t%s\n", r.Summary.ProfitPercentage.StringFixed(2))
	if r.Summary.ProfitPerOrder.Valid {
		fmt.Fprintf(tw, "profit/order\t%s\n", r.Summary.ProfitPerOrder.Decimal.StringFixed(2))
		fmt.Fprintf(tw, "expense/order\t%s\n", r.Summary.ExpensePerOrder.Decimal.StringFixed(2))
	} else {
		fmt.Fprintf(tw, "profit/order\t-\n")
		fmt.Fprintf(tw, "expense/order\t-\n")
	}
	if r.Partial {
		fmt.Fprintf(tw, "partial\ttrue\n")
	}
	tw.Flush()

	if len(r.Cabinets) == 0 {
		return
	}
	fmt.Fprintln(w)
	ct := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(ct, "CABINET\tPLATFORM\tFETCHED\tSTATUS")
	for _, c := range r.Cabinets {
		status := "ok"
		if c.Failed {
			status = "FAILED: " + c.Err
		}
		fmt.Fprintf(ct, "%s\t%s\t%d\t%s\n", c.CabinetID, c.Platform, c.Fetched, status)
	}
	ct.Flush()
}

func appendRunLog(root, operator string, r *recon.Report) error {
	runID, err := runlog.NextRunID(root, r.RunAt)
	if err != nil {
		return fmt.Errorf("allocating run ID: %w", err)
	}

	failed := 0
	for _, c := range r.Cabinets {
		if c.Failed {
			failed++
		}
	}

	return runlog.Append(root, []runlog.Entry{{
		RunID:          runID,
		Timestamp:      r.RunAt,
		Operator:       operator,
		Cabinets:       len(r.Cabinets),
		Matched:        r.Summary.MatchedCount,
		Unmatched:      len(r.UnmatchedIdex) + len(r.UnmatchedExchange),
		FailedCabinets: failed,
		GrossProfit:    r.Summary.GrossProfit,
		Partial:        r.Partial,
	}})
}
