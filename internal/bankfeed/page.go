// Package bankfeed connects the engine to the accounting application's
// "for review" bank feed queue.
package bankfeed

import (
	"context"
	"errors"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// DefaultLimit caps how many rows a single batch reads.
const DefaultLimit = 50

var (
	// ErrSessionLost means the feed can no longer be driven; the batch must stop.
	ErrSessionLost = errors.New("bank feed session lost")
	// ErrControlMissing means the row or the control for the action was not found.
	ErrControlMissing = errors.New("row control not found")
)

// Page is the page-automation collaborator.
type Page interface {
	// ReadForReview returns at most limit rows in feed order.
	ReadForReview(ctx context.Context, limit int) ([]model.BankTransaction, error)
	// Apply sets the category on the row identified by handle and performs action.
	Apply(ctx context.Context, handle, category string, action model.Action) error
}

// Applied records one call to Apply.
type Applied struct {
	Handle   string
	Category string
	Action   model.Action
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
