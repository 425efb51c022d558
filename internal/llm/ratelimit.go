package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/Veraticus/bankfeed-autopilot/internal/common"
)

// throttledClient applies a request budget and retry policy around a provider.
type throttledClient struct {
	inner     Client
	limiter   *rate.Limiter
	retryOpts common.RetryOptions
}

func newThrottledClient(inner Client, cfg Config) *throttledClient {
	perMinute := cfg.RateLimit
	if perMinute <= 0 {
		perMinute = 60
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &throttledClient{
		inner:     inner,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		retryOpts: retryOpts,
	}
}

// Complete waits for a token before every attempt.
func (c *throttledClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	var text string

	err := common.WithRetry(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &common.RetryableError{Err: fmt.Errorf("rate limiter: %w", err)}
		}

		out, err := c.inner.Complete(ctx, system, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	}, c.retryOpts)

	return text, err
}
