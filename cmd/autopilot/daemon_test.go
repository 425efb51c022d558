package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankfeed-autopilot/internal/config"
	"github.com/Veraticus/bankfeed-autopilot/internal/llm"
)

func TestBatchJob_SharesDecisionCacheAcrossTicks(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"category\":\"Consulting Income\",\"confidence\":0.95}"}}]}`))
	}))
	defer server.Close()

	settings := ofxSettings(t)
	settings.DryRun = true
	settings.LLM = config.LLMSettings{
		Provider:   llm.ProviderOpenAI,
		APIKey:     "test-key",
		BaseURL:    server.URL,
		CacheTTL:   time.Hour,
		RateLimit:  6000,
		RetryDelay: time.Millisecond,
	}

	job, err := newBatchJob(settings, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, job.classifier)

	job.run(context.Background())
	job.run(context.Background())

	// Only "Wire from ACME" reaches the model; the second tick is served from cache.
	assert.Equal(t, int32(1), requests.Load())
}

func TestBatchJob_SkipsWhenCanceled(t *testing.T) {
	job, err := newBatchJob(ofxSettings(t), quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job.run(ctx)
}

func TestRunEntryNow_TickDuringBatchIsSkipped(t *testing.T) {
	scheduler := newScheduler(quietLogger())

	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	id, err := scheduler.AddFunc("@every 1h", func() {
		if runs.Add(1) == 1 {
			close(started)
		}
		<-release
	})
	require.NoError(t, err)

	finished := make(chan struct{})
	go func() {
		runEntryNow(scheduler, id)
		close(finished)
	}()
	<-started

	// The scheduler invokes the same wrapped job on a tick.
	tick := make(chan struct{})
	go func() {
		scheduler.Entry(id).WrappedJob.Run()
		close(tick)
	}()

	select {
	case <-tick:
	case <-time.After(2 * time.Second):
		t.Fatal("tick should be skipped while the batch is running")
	}

	close(release)
	<-finished
	assert.Equal(t, int32(1), runs.Load())

	// Once the batch is done the next tick runs normally.
	scheduler.Entry(id).WrappedJob.Run()
	assert.Equal(t, int32(2), runs.Load())
}

func TestRunEntryNow_UnknownEntry(_ *testing.T) {
	runEntryNow(newScheduler(quietLogger()), 42)
}
