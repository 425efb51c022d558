package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = errors.New("string parameter cannot be empty")
	ErrInvalidRun  = errors.New("invalid run")
	ErrRunNotFound = errors.New("run not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateRun(run model.Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("%w: ID cannot be empty", ErrInvalidRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: start time cannot be zero", ErrInvalidRun)
	}
	if run.Loaded < 0 {
		return fmt.Errorf("%w: loaded count cannot be negative", ErrInvalidRun)
	}
	return nil
}
