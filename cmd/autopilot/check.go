package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/bankfeed-autopilot/internal/cli"
	"github.com/Veraticus/bankfeed-autopilot/internal/config"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration without running a batch",
		RunE: func(_ *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			rules, _ := settings.BuildRules()
			fmt.Println(cli.FormatSuccess("Configuration is valid"))
			fmt.Printf("  Feed:     %s\n", feedTarget(settings))
			fmt.Printf("  Rules:    %d\n", len(rules))
			fmt.Printf("  AI:       %s\n", aiStatus(settings))
			fmt.Printf("  Policy:   primary %.2f, fallback %.2f\n", settings.Policy.Primary, settings.Policy.Fallback)
			fmt.Printf("  Schedule: %s\n", settings.Schedule)
			return nil
		},
	}
}

func feedTarget(s config.Settings) string {
	target := s.Feed.BridgeURL
	if s.Feed.Source == config.SourceOFX {
		target = s.Feed.OFXPath
	}
	if s.DryRun {
		target += " (dry run)"
	}
	return fmt.Sprintf("%s %s", s.Feed.Source, target)
}

func aiStatus(s config.Settings) string {
	if !s.AIEnabled() {
		return "disabled"
	}
	model := s.LLM.Model
	if model == "" {
		model = "default model"
	}
	return fmt.Sprintf("%s (%s)", s.LLM.Provider, model)
}
