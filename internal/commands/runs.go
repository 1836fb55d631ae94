package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/paydesk/reconcile/internal/runlog"
)

func newRunsCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded reconciliation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := runlog.Read(root)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tTIME\tOPERATOR\tMATCHED\tUNMATCHED\tFAILED\tPROFIT\tPARTIAL")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%v\n",
					e.RunID, e.Timestamp.Format(time.RFC3339), e.Operator,
					e.Matched, e.Unmatched, e.FailedCabinets,
					e.GrossProfit.StringFixed(2), e.Partial)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "project root")
	return cmd
}
