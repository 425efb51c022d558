package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankfeed-autopilot/internal/common"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid config", config: Config{APIKey: "test-key"}},
		{name: "missing API key", config: Config{}, wantErr: true},
		{name: "custom model and settings", config: Config{APIKey: "test-key", Model: "gpt-4o", Temperature: 0.5, MaxTokens: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrMissingConfig)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  {\"category\":\"Travel\"}  "}}]}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"category":"Travel"}`, text)

	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system text", messages[0].(map[string]any)["content"])
	assert.Equal(t, "user text", messages[1].(map[string]any)["content"])
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantRetryable bool
		wantRateLimit bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"bad key"}`},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`, wantRateLimit: true},
		{name: "server error", status: http.StatusBadGateway, body: `oops`, wantRetryable: true},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "malformed body", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), "s", "p")
			require.Error(t, err)
			assert.Equal(t, tt.wantRateLimit, errors.Is(err, common.ErrRateLimit))
			if tt.wantRateLimit {
				return
			}
			var retryErr *common.RetryableError
			require.ErrorAs(t, err, &retryErr)
			assert.Equal(t, tt.wantRetryable, retryErr.Retryable)
		})
	}
}

func TestNewClient_RetriesThroughThrottle(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Provider:   "openai",
		APIKey:     "k",
		BaseURL:    server.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		RateLimit:  6000,
	})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewClient_EmptyChoicesNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Provider:   "openai",
		APIKey:     "k",
		BaseURL:    server.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		RateLimit:  6000,
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrMaxRetries)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "claudecode", APIKey: "k"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
