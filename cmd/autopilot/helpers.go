package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/bankfeed-autopilot/internal/bankfeed"
	"github.com/Veraticus/bankfeed-autopilot/internal/common"
	"github.com/Veraticus/bankfeed-autopilot/internal/config"
	"github.com/Veraticus/bankfeed-autopilot/internal/engine"
	"github.com/Veraticus/bankfeed-autopilot/internal/llm"
	"github.com/Veraticus/bankfeed-autopilot/internal/notify"
	"github.com/Veraticus/bankfeed-autopilot/internal/pattern"
	"github.com/Veraticus/bankfeed-autopilot/internal/storage"
)

// loadSettings reads the global viper instance into validated settings.
func loadSettings() (config.Settings, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return settings, err
	}
	if err := settings.Validate(); err != nil {
		return settings, common.NewUserError("configuration problems", err)
	}
	return settings, nil
}

// buildFeed opens the configured bank feed, wrapped for dry runs.
func buildFeed(settings config.Settings, logger *slog.Logger) (engine.Feed, error) {
	var page bankfeed.Page

	switch settings.Feed.Source {
	case config.SourceBridge:
		client, err := bankfeed.NewBridgeClient(bankfeed.BridgeConfig{
			BaseURL: settings.Feed.BridgeURL,
			Token:   settings.Feed.BridgeToken,
			Timeout: settings.Feed.Timeout,
		})
		if err != nil {
			return nil, err
		}
		page = client
	case config.SourceOFX:
		feed, err := bankfeed.NewOFXFeed(settings.Feed.OFXPath, logger)
		if err != nil {
			return nil, err
		}
		page = feed
	default:
		return nil, fmt.Errorf("%w: unknown feed source %q", common.ErrInvalidConfig, settings.Feed.Source)
	}

	if settings.DryRun {
		return bankfeed.NewDryRun(page, logger), nil
	}
	return page, nil
}

// buildClassifier returns the AI fallback, or nil when it is not configured.
func buildClassifier(settings config.Settings, logger *slog.Logger) (engine.Classifier, error) {
	if !settings.AIEnabled() {
		if settings.LLM.Required {
			return nil, common.MissingConfig("llm.api_key")
		}
		if settings.LLM.Provider != config.ProviderNone && settings.LLM.Provider != "" {
			logger.Warn("No LLM API key configured; unmatched transactions will be marked for review",
				"provider", settings.LLM.Provider)
		}
		return nil, nil
	}

	client, err := llm.NewClient(settings.LLMConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return llm.NewClassifier(client, llm.ClassifierOptions{
		ActionThreshold: settings.Policy.Fallback,
		CacheTTL:        settings.LLM.CacheTTL,
	}, logger), nil
}

// buildNotifier combines every configured summary channel.
func buildNotifier(settings config.Settings) engine.Notifier {
	var notifiers []notify.Notifier
	if slack := notify.NewSlack(settings.Notify.SlackWebhookURL); slack != nil {
		notifiers = append(notifiers, slack)
	}
	if settings.Notify.Email.Enabled() {
		notifiers = append(notifiers, notify.NewEmail(settings.Notify.Email))
	}
	return notify.Combine(notifiers...)
}

// openHistory opens the run history database and applies migrations.
func openHistory(ctx context.Context, settings config.Settings) (*storage.SQLiteStorage, error) {
	db, err := storage.Open(ctx, settings.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return db, nil
}

// newRunner wires a runner for one batch around a classifier built by
// buildClassifier, which may be nil. Callers running many batches share one
// classifier so its decision cache outlives a batch. The returned cleanup
// closes whatever the runner holds open.
func newRunner(ctx context.Context, settings config.Settings, classifier engine.Classifier, observer engine.Observer, logger *slog.Logger) (*engine.Runner, func(), error) {
	cleanup := func() {}

	feed, err := buildFeed(settings, logger)
	if err != nil {
		return nil, cleanup, err
	}

	rules, err := settings.BuildRules()
	if err != nil {
		return nil, cleanup, err
	}

	cfg := engine.RunnerConfig{
		Feed:       feed,
		Matcher:    pattern.NewMatcher(rules),
		Classifier: classifier,
		Notifier:   buildNotifier(settings),
		Observer:   observer,
		Logger:     logger,
		Source:     settings.Feed.Source,
		Policy:     settings.Policy,
		Limit:      settings.Feed.Limit,
		DryRun:     settings.DryRun,
	}

	if settings.Database.HistoryEnabled {
		db, err := openHistory(ctx, settings)
		if err != nil {
			return nil, cleanup, err
		}
		cfg.Recorder = db
		cleanup = func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Error("Failed to close database", "error", closeErr)
			}
		}
	}

	runner, err := engine.NewRunner(cfg)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return runner, cleanup, nil
}
