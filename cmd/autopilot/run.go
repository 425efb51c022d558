package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/bankfeed-autopilot/internal/bankfeed"
	"github.com/Veraticus/bankfeed-autopilot/internal/cli"
	"github.com/Veraticus/bankfeed-autopilot/internal/engine"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process one batch of the review queue",
		Long: `Read up to --limit rows from the "For review" queue and process them in order.

Each row is matched against the rule set first. Rows no rule matches go to the
AI classifier when one is configured. Add and match actions are applied when
confidence reaches the fallback threshold; everything else is left for review.

Examples:
  autopilot run                       # Process the bridge queue
  autopilot run --dry-run             # Decide everything, apply nothing
  autopilot run --source ofx --ofx statement.qfx --limit 10`,
		RunE: runBatch,
	}

	cmd.Flags().IntP("limit", "l", bankfeed.DefaultLimit, "Maximum rows to process")
	cmd.Flags().Bool("dry-run", false, "Log actions instead of applying them")
	cmd.Flags().String("source", "", "Feed source (bridge, ofx)")
	cmd.Flags().String("ofx", "", "OFX/QFX statement used as the queue when --source=ofx")
	cmd.Flags().Bool("details", false, "Print one line per processed transaction")

	_ = viper.BindPFlag("feed.limit", cmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("feed.source", cmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("feed.ofx_path", cmd.Flags().Lookup("ofx"))

	return cmd
}

func runBatch(cmd *cobra.Command, _ []string) error {
	details, _ := cmd.Flags().GetBool("details")

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := handler.HandleInterrupts(cmd.Context(), false)
	defer stop()

	logger := slog.Default()
	classifier, err := buildClassifier(settings, logger)
	if err != nil {
		return err
	}

	runner, cleanup, err := newRunner(ctx, settings, classifier, cli.NewProgressObserver(os.Stderr), logger)
	if err != nil {
		return err
	}
	defer cleanup()

	report, runErr := runner.Run(ctx)

	fmt.Println(cli.RenderReport(report))
	if details && len(report.Results) > 0 {
		fmt.Println()
		fmt.Println(cli.RenderResults(report.Results))
	}

	if runErr != nil {
		if handler.WasInterrupted() {
			return fmt.Errorf("run interrupted after %d of %d rows", len(report.Results), report.Run.Loaded)
		}
		return runErr
	}
	return nil
}

// reportAttrs flattens a report into slog attributes.
func reportAttrs(report engine.Report) []any {
	c := report.Run.Counters
	return []any{
		"run_id", report.Run.ID,
		"loaded", report.Run.Loaded,
		"added", c.Added,
		"matched", c.Matched,
		"marked_for_review", c.MarkedForReview,
		"failed", c.Failed,
	}
}
