// Package notify delivers end-of-batch summaries out of band.
package notify

import (
	"context"
	"errors"
)

// Notifier delivers an ordered list of summary lines.
type Notifier interface {
	Notify(ctx context.Context, lines []string) error
}

// Nop discards summaries.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, []string) error { return nil }

// Multi fans a summary out to several notifiers. Every notifier is tried;
// failures are joined.
type Multi []Notifier

// Notify delivers to every notifier.
func (m Multi) Notify(ctx context.Context, lines []string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, lines); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Combine returns a single notifier for the non-nil entries.
func Combine(notifiers ...Notifier) Notifier {
	var out Multi
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	default:
		return out
	}
}
