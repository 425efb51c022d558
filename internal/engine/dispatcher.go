package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/bankfeed-autopilot/internal/bankfeed"
	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// Dispatcher decides whether a decision is confident enough to execute and
// keeps the batch counters. It is not safe for concurrent use.
type Dispatcher struct {
	executor Executor
	logger   *slog.Logger
	policy   Policy
	counters model.RunCounters
}

// NewDispatcher creates a dispatcher that executes through executor.
func NewDispatcher(executor Executor, policy Policy, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{executor: executor, policy: policy, logger: logger}
}

// Counters returns the tallies accumulated so far.
func (d *Dispatcher) Counters() model.RunCounters {
	return d.counters
}

// Dispatch executes or skips one decision. Recoverable executor failures are
// counted and swallowed; a lost session or a canceled context is returned so
// the caller can abort the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, txn model.BankTransaction, decision *model.Decision) (model.Outcome, error) {
	if decision == nil {
		d.counters.MarkedForReview++
		d.logger.Info("No decision", "description", txn.Description)
		return model.Outcome{Status: model.OutcomeSkipped, Action: model.ActionMarkForReview, Reason: "no decision"}, nil
	}

	tier := d.policy.Tier(decision.Confidence)
	skip := func(reason string) (model.Outcome, error) {
		d.counters.MarkedForReview++
		d.logger.Info("Skipping execution",
			"description", txn.Description,
			"category", decision.Category,
			"action", decision.Action,
			"confidence", decision.Confidence,
			"reason", reason)
		return model.Outcome{Status: model.OutcomeSkipped, Action: decision.Action, Tier: tier, Reason: reason}, nil
	}

	switch {
	case txn.RowHandle == "":
		return skip("no row handle")
	case !decision.Action.Executable():
		return skip("action is " + string(decision.Action))
	case tier == model.TierNone:
		return skip(fmt.Sprintf("confidence %.2f below %.2f", decision.Confidence, d.policy.Fallback))
	}

	if err := d.executor.Apply(ctx, txn.RowHandle, decision.Category, decision.Action); err != nil {
		d.counters.Failed++
		d.counters.MarkedForReview++
		outcome := model.Outcome{Status: model.OutcomeFailed, Action: decision.Action, Tier: tier, Reason: err.Error()}
		if isFatal(ctx, err) {
			return outcome, err
		}
		d.logger.Warn("Failed to apply action",
			"row", txn.RowHandle,
			"action", decision.Action,
			"error", err)
		return outcome, nil
	}

	switch decision.Action {
	case model.ActionAdd:
		d.counters.Added++
	case model.ActionMatch:
		d.counters.Matched++
	}
	d.logger.Info("Applied action",
		"description", txn.Description,
		"category", decision.Category,
		"action", decision.Action,
		"tier", tier)

	return model.Outcome{Status: model.OutcomeExecuted, Action: decision.Action, Tier: tier}, nil
}

func isFatal(ctx context.Context, err error) bool {
	return errors.Is(err, bankfeed.ErrSessionLost) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		ctx.Err() != nil
}
