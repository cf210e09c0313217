package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/adinsights-cli/internal/model"
	"github.com/sells-group/adinsights-cli/internal/store"
)

var (
	runsStatus string
	runsLabel  string
	runsLimit  int
	runsJSON   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored analysis runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:       model.RunStatus(runsStatus),
			DatasetLabel: runsLabel,
			Limit:        runsLimit,
		})
		if err != nil {
			return err
		}

		if runsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(runs), "encode runs")
		}

		if len(runs) == 0 {
			fmt.Println("no runs found")
			return nil
		}
		for _, r := range runs {
			cost := 0.0
			if r.Report != nil {
				cost = r.Report.CostUSD
			}
			fmt.Printf("%s  %-10s  %-24s  $%.4f  %s\n",
				r.ID, r.Status, r.DatasetLabel, cost, r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var runsGetCmd = &cobra.Command{
	Use:   "get <run-id>",
	Short: "Print one run's full report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(run), "encode run")
	},
}

func init() {
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (queued|analyzing|complete|degraded|failed)")
	runsListCmd.Flags().StringVar(&runsLabel, "label", "", "filter by dataset label")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsListCmd.Flags().BoolVar(&runsJSON, "json", false, "print as JSON")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsGetCmd)
	rootCmd.AddCommand(runsCmd)
}
