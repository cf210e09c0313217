package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/adinsights-cli/internal/dataset"
	"github.com/sells-group/adinsights-cli/internal/model"
	"github.com/sells-group/adinsights-cli/internal/orchestrator"
)

var (
	analyzeContextFile string
	analyzeLabel       string
	analyzeSequential  bool
	analyzeJSON        bool
	analyzeQuiet       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dataset.csv|dataset.xlsx>",
	Short: "Run a full analysis over a campaign dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ds, err := dataset.Load(args[0])
		if err != nil {
			return eris.Wrapf(err, "load dataset %s", args[0])
		}
		if analyzeLabel != "" {
			ds.Label = analyzeLabel
		}
		if analyzeContextFile != "" {
			bizCtx, err := dataset.LoadContext(analyzeContextFile)
			if err != nil {
				return eris.Wrapf(err, "load context %s", analyzeContextFile)
			}
			ds.Context = bizCtx
		}

		var onProgress func(orchestrator.Event)
		if !analyzeQuiet {
			onProgress = func(e orchestrator.Event) {
				fmt.Fprintf(os.Stderr, "[%s] %s\n", e.Stage, e.Message)
			}
		}

		if analyzeSequential {
			cfg.Scheduler.Sequential = true
		}

		env, err := initAnalysis(ctx, onProgress)
		if err != nil {
			return err
		}
		defer env.Close()

		report := env.Orchestrator.RunAnalysis(ctx, ds)

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(report), "encode report")
		}

		printReport(report)
		return nil
	},
}

func printReport(r *model.AggregatedReport) {
	fmt.Printf("Run %s — %s\n\n", r.RunID, r.DatasetLabel)
	fmt.Printf("Spend $%.2f · Revenue $%.2f · ROAS %.2f · CTR %.2f%% · CVR %.2f%%\n\n",
		r.Metrics.TotalSpendUSD, r.Metrics.TotalRevenueUSD, r.Metrics.ROAS,
		r.Metrics.CTR*100, r.Metrics.CVR*100)

	fmt.Println("Summary:")
	fmt.Println(indent(r.Narrative.Brief))
	if r.Narrative.Degraded {
		fmt.Println("  (narrative degraded: all text providers were unavailable)")
	}

	if len(r.Opportunities) > 0 {
		fmt.Println("\nOpportunities:")
		for _, f := range r.Opportunities {
			fmt.Printf("  - %s\n", f.Detail)
		}
	}
	if len(r.Risks) > 0 {
		fmt.Println("\nRisks:")
		for _, f := range r.Risks {
			fmt.Printf("  - %s\n", f.Detail)
		}
	}
	if len(r.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for i, rec := range r.Recommendations {
			fmt.Printf("  %d. [%s] %s\n", i+1, rec.Confidence, rec.Text)
		}
	}
	if len(r.Errors) > 0 {
		fmt.Println("\nRecovered errors:")
		for _, e := range r.Errors {
			fmt.Printf("  - %s (%s): %s\n", e.Stage, e.Kind, e.Message)
		}
	}
	fmt.Printf("\nTokens in/out: %d/%d · Cost $%.4f · Cache %d hits / %d misses\n",
		r.TokenUsage.InputTokens, r.TokenUsage.OutputTokens, r.CostUSD, r.CacheHits, r.CacheMisses)
}

func indent(s string) string {
	if s == "" {
		return "  (none)"
	}
	return "  " + s
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeContextFile, "context", "", "YAML file with business context (targets, industry)")
	analyzeCmd.Flags().StringVar(&analyzeLabel, "label", "", "dataset label override")
	analyzeCmd.Flags().BoolVar(&analyzeSequential, "sequential", false, "run tasks one at a time")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full report as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeQuiet, "quiet", false, "suppress progress output")
	rootCmd.AddCommand(analyzeCmd)
}
