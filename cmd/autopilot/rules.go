package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/bankfeed-autopilot/internal/cli"
	"github.com/Veraticus/bankfeed-autopilot/internal/config"
	"github.com/Veraticus/bankfeed-autopilot/internal/engine"
	"github.com/Veraticus/bankfeed-autopilot/internal/model"
	"github.com/Veraticus/bankfeed-autopilot/internal/pattern"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the categorization rules",
		Long: `List the effective rule set in evaluation order, or test a transaction against it.

Rules from the config file replace the built-in set unless
include_default_rules is true.`,
		RunE: runRulesList,
	}

	cmd.AddCommand(rulesTestCmd())
	return cmd
}

func rulesTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Show the decision the rules make for a transaction",
		Long: `Run a transaction through the rule matcher and normalizer without touching
the bank feed or the AI classifier.

Examples:
  autopilot rules test --description "AMAZON MKTPLACE" --spent 42.10
  autopilot rules test --description "Wire from ACME" --received 500`,
		RunE: runRulesTest,
	}

	cmd.Flags().String("description", "", "Transaction description")
	cmd.Flags().String("payee", "", "Payee")
	cmd.Flags().String("memo", "", "Memo")
	cmd.Flags().String("spent", "", "Spent amount, e.g. 42.10")
	cmd.Flags().String("received", "", "Received amount, e.g. 500")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

// effectiveMatcher builds the matcher a batch would use.
func effectiveMatcher() (*pattern.Matcher, config.Settings, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, settings, err
	}
	rules, err := settings.BuildRules()
	if err != nil {
		return nil, settings, err
	}
	return pattern.NewMatcher(rules), settings, nil
}

func runRulesList(_ *cobra.Command, _ []string) error {
	matcher, _, err := effectiveMatcher()
	if err != nil {
		return err
	}

	rules := matcher.Rules()
	fmt.Println(cli.FormatTitle(fmt.Sprintf("%d rules", len(rules))))
	fmt.Println(cli.RenderRules(rules))
	return nil
}

func runRulesTest(cmd *cobra.Command, _ []string) error {
	matcher, settings, err := effectiveMatcher()
	if err != nil {
		return err
	}

	txn := transactionFromFlags(cmd)
	policy := settings.Policy
	if err := policy.Validate(); err != nil {
		return err
	}

	fmt.Println(cli.RenderDecision(txn, testDecision(matcher, txn), policy))
	return nil
}

// testDecision matches and normalizes the way a batch would, minus the AI.
func testDecision(matcher *pattern.Matcher, txn model.BankTransaction) *model.Decision {
	d, ok := matcher.Match(txn)
	if !ok {
		return nil
	}
	n := engine.Normalize(txn, d)
	return &n
}

func transactionFromFlags(cmd *cobra.Command) model.BankTransaction {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return model.BankTransaction{
		Description: get("description"),
		Payee:       get("payee"),
		Memo:        get("memo"),
		Spent:       get("spent"),
		Received:    get("received"),
		Status:      model.StatusForReview,
	}
}
