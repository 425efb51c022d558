package bankfeed

import (
	"context"
	"log/slog"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// DryRun reads from the wrapped page but never changes it.
type DryRun struct {
	Page
	logger  *slog.Logger
	applied []Applied
}

// NewDryRun wraps page.
func NewDryRun(page Page, logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{Page: page, logger: logger}
}

// Apply logs the action it would have taken.
func (d *DryRun) Apply(_ context.Context, handle, category string, action model.Action) error {
	d.applied = append(d.applied, Applied{Handle: handle, Category: category, Action: action})
	d.logger.Info("Applied (simulated)", "row", handle, "category", category, "action", action)
	return nil
}

// Applied returns the simulated actions.
func (d *DryRun) Applied() []Applied {
	out := make([]Applied, len(d.applied))
	copy(out, d.applied)
	return out
}
