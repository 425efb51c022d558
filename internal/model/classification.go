package model

import "fmt"

// Action is the remediation applied to a feed row.
type Action string

// Action constants.
const (
	// ActionAdd creates and accepts a new categorized entry (expenses).
	ActionAdd Action = "add"
	// ActionMatch reconciles against an existing counterpart record (revenue).
	ActionMatch Action = "match"
	// ActionMarkForReview leaves the row for a human.
	ActionMarkForReview Action = "mark_for_review"
)

// ParseAction converts a string into a known action.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAdd, ActionMatch, ActionMarkForReview:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// Executable reports whether the action changes the feed.
func (a Action) Executable() bool {
	return a == ActionAdd || a == ActionMatch
}

// DecisionSource indicates how a transaction was categorized.
type DecisionSource string

// Decision source constants.
const (
	SourceRule DecisionSource = "rule"
	SourceAI   DecisionSource = "ai"
)

// Decision is the categorization outcome for a single transaction.
type Decision struct {
	Category   string
	Action     Action
	Reason     string
	Source     DecisionSource
	Confidence float64
	// ExplicitAction is set when the rule or model named the action itself.
	ExplicitAction bool
}

// ClampConfidence forces a score into [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
