package engine

import (
	"context"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// RuleMatcher returns the decision of the first matching rule.
type RuleMatcher interface {
	Match(txn model.BankTransaction) (model.Decision, bool)
}

// Classifier is the AI fallback. A nil result means "no decision".
type Classifier interface {
	Classify(ctx context.Context, txn model.BankTransaction) *model.Decision
}

// Executor applies an action to a row in the bank feed.
type Executor interface {
	Apply(ctx context.Context, handle, category string, action model.Action) error
}

// Feed is the bank feed a Runner reads from and writes to.
type Feed interface {
	Executor
	ReadForReview(ctx context.Context, limit int) ([]model.BankTransaction, error)
}

// Notifier delivers the summary lines of a finished batch.
type Notifier interface {
	Notify(ctx context.Context, lines []string) error
}

// Recorder persists run history.
type Recorder interface {
	StartRun(ctx context.Context, run model.Run) error
	RecordResult(ctx context.Context, runID string, result model.RunResult) error
	FinishRun(ctx context.Context, run model.Run) error
}

// Observer follows batch progress.
type Observer interface {
	Start(total int)
	Step(result model.RunResult)
	Finish()
}
