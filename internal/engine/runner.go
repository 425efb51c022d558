// Package engine turns bank feed rows into decisions and applies them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/bankfeed-autopilot/internal/bankfeed"
	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

const notifyTimeout = 30 * time.Second

// RunnerConfig wires a Runner. Feed and Matcher are required.
type RunnerConfig struct {
	Feed       Feed
	Matcher    RuleMatcher
	Classifier Classifier
	Notifier   Notifier
	Recorder   Recorder
	Observer   Observer
	Logger     *slog.Logger
	Source     string
	// Policy defaults to DefaultPolicy when left zero. A zero policy never
	// validates, so a zero value can only mean "unset".
	Policy Policy
	Limit  int
	DryRun bool
}

// Runner processes one batch of the review queue per call to Run.
type Runner struct {
	cfg    RunnerConfig
	logger *slog.Logger
}

// Report is what a batch did.
type Report struct {
	Run     model.Run
	Results []model.RunResult
}

// NewRunner validates cfg and creates a runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Feed == nil {
		return nil, errors.New("runner requires a feed")
	}
	if cfg.Matcher == nil {
		return nil, errors.New("runner requires a rule matcher")
	}
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy()
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.Limit <= 0 {
		cfg.Limit = bankfeed.DefaultLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{cfg: cfg, logger: logger}, nil
}

// Run reads the review queue and processes it in feed order. The summary is
// delivered even when the batch fails part way.
func (r *Runner) Run(ctx context.Context) (report Report, err error) {
	report.Run = model.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Source:    r.cfg.Source,
		DryRun:    r.cfg.DryRun,
	}
	logger := r.logger.With("run_id", report.Run.ID)
	logger.Info("Starting bank feed run", "limit", r.cfg.Limit, "dry_run", r.cfg.DryRun)

	if r.cfg.Recorder != nil {
		if recErr := r.cfg.Recorder.StartRun(ctx, report.Run); recErr != nil {
			logger.Warn("Failed to record run start", "error", recErr)
		}
	}

	loaded := false
	dispatcher := NewDispatcher(r.cfg.Feed, r.cfg.Policy, logger)

	defer func() {
		report.Run.Counters = dispatcher.Counters()
		report.Run.FinishedAt = time.Now()
		if err != nil {
			report.Run.Error = err.Error()
			logger.Error("Run failed", "error", err)
		} else {
			logger.Info("Run completed successfully", "counters", report.Run.Counters)
		}
		r.finish(ctx, logger, report, loaded, err)
	}()

	txns, err := r.cfg.Feed.ReadForReview(ctx, r.cfg.Limit)
	if err != nil {
		return report, fmt.Errorf("failed to read review queue: %w", err)
	}
	if len(txns) > r.cfg.Limit {
		txns = txns[:r.cfg.Limit]
	}
	loaded = true
	report.Run.Loaded = len(txns)

	if r.cfg.Observer != nil {
		r.cfg.Observer.Start(len(txns))
		defer r.cfg.Observer.Finish()
	}

	for i, txn := range txns {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}

		decision := r.decide(ctx, logger, txn)
		outcome, dispatchErr := dispatcher.Dispatch(ctx, txn, decision)

		result := model.RunResult{Position: i, Transaction: txn, Decision: decision, Outcome: outcome}
		report.Results = append(report.Results, result)

		if r.cfg.Recorder != nil {
			if recErr := r.cfg.Recorder.RecordResult(ctx, report.Run.ID, result); recErr != nil {
				logger.Warn("Failed to record result", "position", i, "error", recErr)
			}
		}
		if r.cfg.Observer != nil {
			r.cfg.Observer.Step(result)
		}

		if dispatchErr != nil {
			return report, fmt.Errorf("aborting batch at row %d: %w", i+1, dispatchErr)
		}
	}

	return report, nil
}

// decide runs rules, then the AI fallback, then normalization.
func (r *Runner) decide(ctx context.Context, logger *slog.Logger, txn model.BankTransaction) *model.Decision {
	if d, ok := r.cfg.Matcher.Match(txn); ok {
		n := Normalize(txn, d)
		logger.Debug("Decision", "description", txn.Description, "source", n.Source, "reason", n.Reason)
		return &n
	}

	if r.cfg.Classifier == nil {
		return nil
	}

	d := r.cfg.Classifier.Classify(ctx, txn)
	if d == nil {
		return nil
	}
	n := Normalize(txn, *d)
	logger.Debug("Decision", "description", txn.Description, "source", n.Source, "reason", n.Reason)
	return &n
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, report Report, loaded bool, runErr error) {
	// Deliver even after cancellation.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if r.cfg.Recorder != nil {
		if err := r.cfg.Recorder.FinishRun(ctx, report.Run); err != nil {
			logger.Warn("Failed to record run finish", "error", err)
		}
	}

	if r.cfg.Notifier == nil {
		return
	}
	if err := r.cfg.Notifier.Notify(ctx, SummaryLines(report.Run, loaded, runErr)); err != nil {
		logger.Warn("Failed to deliver summary", "error", err)
	}
}
