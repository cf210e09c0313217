package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/adinsights-cli/internal/knowledge"
	"github.com/sells-group/adinsights-cli/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the durable knowledge cache",
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired knowledge cache entries from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.DeleteExpiredKnowledge(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d expired entries\n", n)
		return nil
	},
}

var cacheFingerprintCmd = &cobra.Command{
	Use:   "fingerprint <query>",
	Short: "Print the cache fingerprint for a query",
	Long:  "Queries that normalize identically share a fingerprint and therefore a cache entry. Useful for checking whether two phrasings collide.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(knowledge.Fingerprint(args[0]))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheCmd.AddCommand(cacheFingerprintCmd)
	rootCmd.AddCommand(cacheCmd)
}
