package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankfeed-autopilot/internal/common"
)

type stubClient struct {
	errs  []error
	text  string
	calls int
}

func (s *stubClient) Complete(_ context.Context, _, _ string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return s.text, nil
}

func TestThrottledClient_RetriesRetryableErrors(t *testing.T) {
	inner := &stubClient{
		errs: []error{&common.RetryableError{Err: errors.New("502"), Retryable: true}},
		text: "ok",
	}
	c := newThrottledClient(inner, Config{RetryDelay: time.Millisecond, RateLimit: 6000})

	text, err := c.Complete(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 2, inner.calls)
}

func TestThrottledClient_StopsOnPermanentErrors(t *testing.T) {
	inner := &stubClient{
		errs: []error{&common.RetryableError{Err: errors.New("401")}},
	}
	c := newThrottledClient(inner, Config{RetryDelay: time.Millisecond, RateLimit: 6000})

	_, err := c.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestThrottledClient_CanceledContext(t *testing.T) {
	inner := &stubClient{text: "ok"}
	c := newThrottledClient(inner, Config{RateLimit: 1})
	// drain the single burst token
	_, err := c.Complete(context.Background(), "s", "p")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Complete(ctx, "s", "p")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
