package model

import "time"

// Tier is the assurance level under which an action was executed.
type Tier string

// Tier constants.
const (
	TierNone     Tier = ""
	TierPrimary  Tier = "primary"
	TierFallback Tier = "fallback"
)

// OutcomeStatus describes what the dispatcher did with a transaction.
type OutcomeStatus string

// Outcome status constants.
const (
	OutcomeExecuted OutcomeStatus = "executed"
	OutcomeSkipped  OutcomeStatus = "skipped"
	OutcomeFailed   OutcomeStatus = "failed"
)

// Outcome is the result of dispatching one decision.
type Outcome struct {
	Status OutcomeStatus
	Action Action
	Tier   Tier
	Reason string
}

// Executed reports whether the feed was changed.
func (o Outcome) Executed() bool {
	return o.Status == OutcomeExecuted
}

// RunCounters are the batch-level tallies. Every transaction lands in exactly
// one of Added, Matched or MarkedForReview; Failed counts the subset of
// MarkedForReview whose execution was attempted and rejected.
type RunCounters struct {
	Added           int `json:"added"`
	Matched         int `json:"matched"`
	MarkedForReview int `json:"marked_for_review"`
	Failed          int `json:"failed"`
}

// Total is the number of transactions counted.
func (c RunCounters) Total() int {
	return c.Added + c.Matched + c.MarkedForReview
}

// RunResult is the per-transaction trace of a batch.
type RunResult struct {
	Decision    *Decision
	Transaction BankTransaction
	Outcome     Outcome
	Position    int
}

// Run describes one batch invocation.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ID         string
	Source     string
	Error      string
	Loaded     int
	Counters   RunCounters
	DryRun     bool
}
