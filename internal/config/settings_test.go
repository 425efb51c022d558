package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankfeed-autopilot/internal/common"
	"github.com/Veraticus/bankfeed-autopilot/internal/engine"
	"github.com/Veraticus/bankfeed-autopilot/internal/model"
	"github.com/Veraticus/bankfeed-autopilot/internal/pattern"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func clearWellKnownEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "SLACK_WEBHOOK_URL", "CRON_SCHEDULE"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearWellKnownEnv(t)

	s, err := Load(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, SourceBridge, s.Feed.Source)
	assert.Equal(t, 50, s.Feed.Limit)
	assert.Equal(t, engine.DefaultPolicy(), s.Policy)
	assert.Equal(t, "openai", s.LLM.Provider)
	assert.Equal(t, 24*time.Hour, s.LLM.CacheTTL)
	assert.Equal(t, DefaultSchedule, s.Schedule)
	assert.True(t, s.Database.HistoryEnabled)
	assert.False(t, s.AIEnabled())
	assert.False(t, s.DryRun)
}

func TestLoad_FromYAML(t *testing.T) {
	clearWellKnownEnv(t)

	s, err := Load(newViper(t, `
feed:
  source: OFX
  ofx_path: /tmp/statement.qfx
  limit: 10
llm:
  provider: anthropic
  api_key: sk-test
  cache_ttl: 1h
policy:
  primary_threshold: 0.95
  fallback_threshold: 0.8
notify:
  email:
    host: smtp.example.com
    from: bot@example.com
    to: [books@example.com]
schedule:
  cron: "*/30 * * * *"
rules:
  - name: Wire -> Sales
    category: Sales
    keywords: [wire]
    confidence: 0.95
    action: match
`))
	require.NoError(t, err)

	assert.Equal(t, SourceOFX, s.Feed.Source)
	assert.Equal(t, "/tmp/statement.qfx", s.Feed.OFXPath)
	assert.Equal(t, 10, s.Feed.Limit)
	assert.Equal(t, engine.Policy{Primary: 0.95, Fallback: 0.8}, s.Policy)
	assert.True(t, s.AIEnabled())
	assert.Equal(t, time.Hour, s.LLM.CacheTTL)
	assert.Equal(t, []string{"books@example.com"}, s.Notify.Email.To)
	assert.Equal(t, "*/30 * * * *", s.Schedule)

	require.Len(t, s.Rules, 1)
	require.NoError(t, s.Validate())

	rules, err := s.BuildRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "Sales", rules[0].Category)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearWellKnownEnv(t)
	t.Setenv("AUTOPILOT_FEED_BRIDGE_URL", "http://bridge:8931")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/x")
	t.Setenv("CRON_SCHEDULE", "0 6 * * *")

	v := newViper(t, "")
	BindEnv(v)

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://bridge:8931", s.Feed.BridgeURL)
	assert.Equal(t, "sk-env", s.LLM.APIKey)
	assert.Equal(t, "https://hooks.slack.com/services/x", s.Notify.SlackWebhookURL)
	assert.Equal(t, "0 6 * * *", s.Schedule)
	assert.NoError(t, s.Validate())
}

func TestBuildRules(t *testing.T) {
	s := Settings{}
	rules, err := s.BuildRules()
	require.NoError(t, err)
	assert.Equal(t, "Amazon -> Office Supplies", rules[0].Name)

	conf := 0.9
	s.IncludeDefaultRules = true
	s.Rules = append(s.Rules, ruleConfig("Uber -> Travel", "Travel", "uber", &conf))
	rules, err = s.BuildRules()
	require.NoError(t, err)
	assert.Equal(t, "Uber -> Travel", rules[0].Name)
	assert.Equal(t, "Amazon -> Office Supplies", rules[1].Name)

	s.Rules[0].Action = "auto_accept"
	_, err = s.BuildRules()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	valid := func() Settings {
		return Settings{
			Feed:     FeedSettings{Source: SourceBridge, BridgeURL: "http://localhost:8931", Limit: 50},
			LLM:      LLMSettings{Provider: "openai"},
			Policy:   engine.DefaultPolicy(),
			Database: DatabaseSettings{Path: "/tmp/history.db", HistoryEnabled: true},
		}
	}

	tests := []struct {
		mutate  func(*Settings)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*Settings) {}},
		{name: "missing bridge url", mutate: func(s *Settings) { s.Feed.BridgeURL = "" }, wantErr: true},
		{name: "ofx without path", mutate: func(s *Settings) { s.Feed.Source = SourceOFX }, wantErr: true},
		{name: "unknown source", mutate: func(s *Settings) { s.Feed.Source = "plaid" }, wantErr: true},
		{name: "zero limit", mutate: func(s *Settings) { s.Feed.Limit = 0 }, wantErr: true},
		{name: "inverted thresholds", mutate: func(s *Settings) { s.Policy = engine.Policy{Primary: 0.6, Fallback: 0.7} }, wantErr: true},
		{name: "zero thresholds", mutate: func(s *Settings) { s.Policy = engine.Policy{} }, wantErr: true},
		{name: "unknown provider", mutate: func(s *Settings) { s.LLM.Provider = "claudecode" }, wantErr: true},
		{name: "missing key is a warning", mutate: func(s *Settings) { s.LLM.APIKey = "" }},
		{name: "missing key when required", mutate: func(s *Settings) { s.LLM.Required = true }, wantErr: true},
		{name: "ai disabled", mutate: func(s *Settings) { s.LLM.Provider = ProviderNone }},
		{name: "partial email", mutate: func(s *Settings) { s.Notify.Email.Host = "smtp.example.com" }, wantErr: true},
		{name: "history without path", mutate: func(s *Settings) { s.Database.Path = "" }, wantErr: true},
		{name: "history disabled", mutate: func(s *Settings) { s.Database = DatabaseSettings{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("AUTOPILOT_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("AUTOPILOT_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("AUTOPILOT_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("AUTOPILOT_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func ruleConfig(name, category, keyword string, conf *float64) pattern.RuleConfig {
	return pattern.RuleConfig{Name: name, Category: category, Keywords: []string{keyword}, Confidence: conf, Action: string(model.ActionAdd)}
}
