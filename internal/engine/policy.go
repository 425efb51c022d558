package engine

import (
	"fmt"

	"github.com/Veraticus/bankfeed-autopilot/internal/common"
	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// Default confidence tiers.
const (
	DefaultPrimaryThreshold  = 0.9
	DefaultFallbackThreshold = 0.7
)

// Policy holds the confidence tiers that gate execution.
type Policy struct {
	Primary  float64
	Fallback float64
}

// DefaultPolicy returns the standard 0.9 / 0.7 tiers.
func DefaultPolicy() Policy {
	return Policy{Primary: DefaultPrimaryThreshold, Fallback: DefaultFallbackThreshold}
}

// Validate checks 0 <= Fallback <= Primary <= 1 with a positive Primary.
func (p Policy) Validate() error {
	if p.Primary <= 0 {
		return fmt.Errorf("%w: primary threshold must be positive, got %.2f", common.ErrInvalidConfig, p.Primary)
	}
	if p.Fallback < 0 || p.Primary > 1 || p.Fallback > p.Primary {
		return fmt.Errorf("%w: thresholds must satisfy 0 <= fallback (%.2f) <= primary (%.2f) <= 1",
			common.ErrInvalidConfig, p.Fallback, p.Primary)
	}
	return nil
}

// Tier classifies a confidence score, evaluated high to low.
func (p Policy) Tier(confidence float64) model.Tier {
	switch {
	case confidence >= p.Primary:
		return model.TierPrimary
	case confidence >= p.Fallback:
		return model.TierFallback
	default:
		return model.TierNone
	}
}
