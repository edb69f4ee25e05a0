package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var metricsDays int

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Inspect briefing token usage",
}

var metricsUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show daily token usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		usage, err := a.Metrics().GetDailyUsage(cmd.Context(), metricsDays)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DAY\tPROMPT\tCOMPLETION\tRUNS")
		for _, d := range usage {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
		}
		return w.Flush()
	},
}

var metricsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete usage records older than --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Metrics().Cleanup(cmd.Context(), metricsDays)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records\n", n)
		return nil
	},
}

func init() {
	metricsCmd.PersistentFlags().IntVar(&metricsDays, "days", 7, "Number of days")
	metricsCmd.AddCommand(metricsUsageCmd, metricsCleanupCmd)
	rootCmd.AddCommand(metricsCmd)
}
