package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/bankfeed-autopilot/internal/cli"
	"github.com/Veraticus/bankfeed-autopilot/internal/common"
	"github.com/Veraticus/bankfeed-autopilot/internal/config"
	"github.com/Veraticus/bankfeed-autopilot/internal/engine"
)

func daemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run batches on a cron schedule",
		Long: `Stay in the foreground and process one batch per cron tick.

The schedule uses standard five-field cron syntax and defaults to 03:00 daily.
A tick that fires while the previous batch is still running is skipped.

Examples:
  autopilot daemon                        # Daily at 03:00
  autopilot daemon --schedule "*/30 * * * *"
  autopilot daemon --run-now              # Also process one batch at startup`,
		RunE: runDaemon,
	}

	cmd.Flags().String("schedule", "", "Cron expression (default \""+config.DefaultSchedule+"\")")
	cmd.Flags().Bool("run-now", false, "Process a batch immediately on startup")

	_ = viper.BindPFlag("schedule.cron", cmd.Flags().Lookup("schedule"))

	return cmd
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	runNow, _ := cmd.Flags().GetBool("run-now")

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := handler.HandleInterrupts(cmd.Context(), true)
	defer stop()

	logger := slog.Default()
	batches, err := newBatchJob(settings, logger)
	if err != nil {
		return err
	}

	scheduler := newScheduler(logger)
	id, err := scheduler.AddFunc(settings.Schedule, func() { batches.run(ctx) })
	if err != nil {
		return fmt.Errorf("%w: schedule %q: %v", common.ErrInvalidConfig, settings.Schedule, err)
	}

	scheduler.Start()
	logger.Info("Scheduler started", "schedule", settings.Schedule, "next_run", scheduler.Entry(id).Next)

	if runNow {
		runEntryNow(scheduler, id)
	}

	<-ctx.Done()

	// Stop returns a context that is done once running jobs complete.
	<-scheduler.Stop().Done()
	logger.Info("Scheduler stopped")
	return nil
}

func newScheduler(logger *slog.Logger) *cron.Cron {
	l := cronLogger{logger: logger}
	return cron.New(
		cron.WithLocation(time.Local),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
}

// runEntryNow runs an entry outside its schedule through the same wrapped
// job the scheduler calls, so a tick that fires meanwhile is skipped.
func runEntryNow(scheduler *cron.Cron, id cron.EntryID) {
	if job := scheduler.Entry(id).WrappedJob; job != nil {
		job.Run()
	}
}

// batchJob runs one batch per tick. The classifier is built once so its
// decision cache spans ticks.
type batchJob struct {
	classifier engine.Classifier
	logger     *slog.Logger
	settings   config.Settings
}

func newBatchJob(settings config.Settings, logger *slog.Logger) (*batchJob, error) {
	classifier, err := buildClassifier(settings, logger)
	if err != nil {
		return nil, err
	}
	return &batchJob{classifier: classifier, logger: logger, settings: settings}, nil
}

// run processes one batch. Failures are logged; the schedule keeps going.
func (j *batchJob) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	runner, cleanup, err := newRunner(ctx, j.settings, j.classifier, nil, j.logger)
	if err != nil {
		j.logger.Error("Failed to prepare batch", "error", err)
		return
	}
	defer cleanup()

	report, err := runner.Run(ctx)
	if err != nil {
		j.logger.Error("Scheduled batch failed", append(reportAttrs(report), "error", err)...)
		return
	}
	j.logger.Info("Scheduled batch finished", reportAttrs(report)...)
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
