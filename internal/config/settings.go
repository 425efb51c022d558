package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/bankfeed-autopilot/internal/bankfeed"
	"github.com/Veraticus/bankfeed-autopilot/internal/common"
	"github.com/Veraticus/bankfeed-autopilot/internal/engine"
	"github.com/Veraticus/bankfeed-autopilot/internal/llm"
	"github.com/Veraticus/bankfeed-autopilot/internal/notify"
	"github.com/Veraticus/bankfeed-autopilot/internal/pattern"
)

// EnvPrefix is the prefix for environment overrides, e.g. AUTOPILOT_FEED_BRIDGE_URL.
const EnvPrefix = "AUTOPILOT"

// Feed sources.
const (
	SourceBridge = "bridge"
	SourceOFX    = "ofx"
)

// ProviderNone disables the AI fallback.
const ProviderNone = "none"

// DefaultSchedule runs the daemon daily at 03:00.
const DefaultSchedule = "0 3 * * *"

// Settings is the typed view of the configuration.
type Settings struct {
	Notify   NotifySettings
	Feed     FeedSettings
	Database DatabaseSettings
	Schedule string
	LLM      LLMSettings
	Rules    []pattern.RuleConfig
	Policy   engine.Policy
	// IncludeDefaultRules appends the built-in rules after configured ones.
	IncludeDefaultRules bool
	DryRun              bool
}

// FeedSettings selects and configures the bank feed.
type FeedSettings struct {
	Source      string
	BridgeURL   string
	BridgeToken string
	OFXPath     string
	Limit       int
	Timeout     time.Duration
}

// LLMSettings configures the AI fallback.
type LLMSettings struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	RateLimit   int
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	CacheTTL    time.Duration
	Required    bool
}

// NotifySettings configures summary delivery.
type NotifySettings struct {
	SlackWebhookURL string
	Email           notify.EmailConfig
}

// DatabaseSettings configures run history.
type DatabaseSettings struct {
	Path           string
	HistoryEnabled bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("feed.source", SourceBridge)
	v.SetDefault("feed.limit", bankfeed.DefaultLimit)
	v.SetDefault("feed.timeout", 2*time.Minute)
	v.SetDefault("llm.provider", llm.ProviderOpenAI)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 200)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.cache_ttl", 24*time.Hour)
	v.SetDefault("policy.primary_threshold", engine.DefaultPrimaryThreshold)
	v.SetDefault("policy.fallback_threshold", engine.DefaultFallbackThreshold)
	v.SetDefault("include_default_rules", false)
	v.SetDefault("notify.email.port", "587")
	v.SetDefault("database.path", DefaultHistoryPath())
	v.SetDefault("history.enabled", true)
	v.SetDefault("dry_run", false)
}

// BindEnv makes every nested key overridable from AUTOPILOT_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(ExpandPath(path)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads Settings from v. Well-known unprefixed variables such as
// OPENAI_API_KEY and SLACK_WEBHOOK_URL fill settings left empty.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Feed: FeedSettings{
			Source:      strings.ToLower(strings.TrimSpace(v.GetString("feed.source"))),
			BridgeURL:   v.GetString("feed.bridge_url"),
			BridgeToken: v.GetString("feed.bridge_token"),
			OFXPath:     ExpandPath(v.GetString("feed.ofx_path")),
			Limit:       v.GetInt("feed.limit"),
			Timeout:     v.GetDuration("feed.timeout"),
		},
		LLM: LLMSettings{
			Provider:    strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			Timeout:     v.GetDuration("llm.timeout"),
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			Required:    v.GetBool("llm.required"),
		},
		Policy: engine.Policy{
			Primary:  v.GetFloat64("policy.primary_threshold"),
			Fallback: v.GetFloat64("policy.fallback_threshold"),
		},
		IncludeDefaultRules: v.GetBool("include_default_rules"),
		Notify: NotifySettings{
			SlackWebhookURL: v.GetString("notify.slack_webhook_url"),
			Email: notify.EmailConfig{
				Host:     v.GetString("notify.email.host"),
				Port:     v.GetString("notify.email.port"),
				Username: v.GetString("notify.email.username"),
				Password: v.GetString("notify.email.password"),
				From:     v.GetString("notify.email.from"),
				To:       v.GetStringSlice("notify.email.to"),
			},
		},
		Schedule: v.GetString("schedule.cron"),
		Database: DatabaseSettings{
			Path:           ExpandPath(v.GetString("database.path")),
			HistoryEnabled: v.GetBool("history.enabled"),
		},
		DryRun: v.GetBool("dry_run"),
	}

	if s.LLM.APIKey == "" {
		switch s.LLM.Provider {
		case llm.ProviderOpenAI:
			s.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case llm.ProviderAnthropic:
			s.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if s.Notify.SlackWebhookURL == "" {
		s.Notify.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	}
	if s.Schedule == "" {
		s.Schedule = os.Getenv("CRON_SCHEDULE")
	}
	if s.Schedule == "" {
		s.Schedule = DefaultSchedule
	}

	if err := v.UnmarshalKey("rules", &s.Rules); err != nil {
		return s, fmt.Errorf("%w: rules: %v", common.ErrInvalidConfig, err)
	}

	return s, nil
}

// AIEnabled reports whether the AI fallback can run.
func (s Settings) AIEnabled() bool {
	return s.LLM.Provider != ProviderNone && s.LLM.Provider != "" && s.LLM.APIKey != ""
}

// BuildRules returns the effective ordered rule set. Without configured rules
// the built-in set is used.
func (s Settings) BuildRules() ([]pattern.Rule, error) {
	if len(s.Rules) == 0 {
		return pattern.DefaultRules(), nil
	}

	rules, err := pattern.BuildRules(s.Rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	if s.IncludeDefaultRules {
		rules = append(rules, pattern.DefaultRules()...)
	}
	return rules, nil
}

// LLMConfig converts the settings into a client config.
func (s Settings) LLMConfig() llm.Config {
	return llm.Config{
		Provider:    s.LLM.Provider,
		APIKey:      s.LLM.APIKey,
		Model:       s.LLM.Model,
		BaseURL:     s.LLM.BaseURL,
		Temperature: s.LLM.Temperature,
		MaxTokens:   s.LLM.MaxTokens,
		MaxRetries:  s.LLM.MaxRetries,
		RetryDelay:  s.LLM.RetryDelay,
		Timeout:     s.LLM.Timeout,
		RateLimit:   s.LLM.RateLimit,
	}
}

// Validate reports every configuration problem that would stop a run.
func (s Settings) Validate() error {
	var errs []error

	switch s.Feed.Source {
	case SourceBridge:
		if strings.TrimSpace(s.Feed.BridgeURL) == "" {
			errs = append(errs, common.MissingConfig("feed.bridge_url"))
		}
	case SourceOFX:
		if strings.TrimSpace(s.Feed.OFXPath) == "" {
			errs = append(errs, common.MissingConfig("feed.ofx_path"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: feed.source must be %q or %q, got %q",
			common.ErrInvalidConfig, SourceBridge, SourceOFX, s.Feed.Source))
	}

	if s.Feed.Limit <= 0 {
		errs = append(errs, fmt.Errorf("%w: feed.limit must be positive", common.ErrInvalidConfig))
	}

	if err := s.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch s.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderAnthropic:
		if s.LLM.Required && s.LLM.APIKey == "" {
			errs = append(errs, common.MissingConfig("llm.api_key"))
		}
	case ProviderNone, "":
		if s.LLM.Required {
			errs = append(errs, fmt.Errorf("%w: llm.required is set but no provider is configured", common.ErrInvalidConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, s.LLM.Provider))
	}

	if email := s.Notify.Email; email.Enabled() {
		if email.Host == "" {
			errs = append(errs, common.MissingConfig("notify.email.host"))
		}
		if email.From == "" {
			errs = append(errs, common.MissingConfig("notify.email.from"))
		}
		if len(email.To) == 0 {
			errs = append(errs, common.MissingConfig("notify.email.to"))
		}
	}

	if _, err := s.BuildRules(); err != nil {
		errs = append(errs, err)
	}

	if s.Database.HistoryEnabled && strings.TrimSpace(s.Database.Path) == "" {
		errs = append(errs, common.MissingConfig("database.path"))
	}

	return errors.Join(errs...)
}
