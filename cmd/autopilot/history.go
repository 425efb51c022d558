package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/bankfeed-autopilot/internal/cli"
	"github.com/Veraticus/bankfeed-autopilot/internal/config"
	"github.com/Veraticus/bankfeed-autopilot/internal/engine"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded batch runs",
		Long: `List recent batch runs, newest first, or show every transaction of one run.

Examples:
  autopilot history
  autopilot history --limit 5
  autopilot history --run 5f0c6a9e-...`,
		RunE: runHistory,
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of runs to list")
	cmd.Flags().String("run", "", "Show the results of one run")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")

	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	db, err := openHistory(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if runID == "" {
		runs, err := db.ListRuns(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		fmt.Println(cli.FormatTitle("Recent runs"))
		fmt.Println(cli.RenderRuns(runs))
		return nil
	}

	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	results, err := db.GetRunResults(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run results: %w", err)
	}

	fmt.Println(cli.RenderReport(engine.Report{Run: run, Results: results}))
	fmt.Println()
	fmt.Println(cli.RenderResults(results))
	return nil
}
