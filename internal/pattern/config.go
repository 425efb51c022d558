package pattern

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// ErrInvalidRule is returned when a configured rule cannot be built.
var ErrInvalidRule = errors.New("invalid rule")

// RuleConfig is the file representation of a rule.
// A rule matches when any keyword matches (or no keywords are given) and
// every amount condition holds.
type RuleConfig struct {
	Confidence *float64          `mapstructure:"confidence" yaml:"confidence,omitempty"`
	Name       string            `mapstructure:"name" yaml:"name"`
	Category   string            `mapstructure:"category" yaml:"category"`
	Action     string            `mapstructure:"action" yaml:"action,omitempty"`
	Keywords   []string          `mapstructure:"keywords" yaml:"keywords,omitempty"`
	Amounts    []AmountRuleValue `mapstructure:"amounts" yaml:"amounts,omitempty"`
}

// AmountRuleValue is one amount comparison in a RuleConfig.
type AmountRuleValue struct {
	Column    string `mapstructure:"column" yaml:"column"`
	Condition string `mapstructure:"condition" yaml:"condition"`
	Value     string `mapstructure:"value" yaml:"value"`
}

// BuildRules converts configured rules into matcher rules, keeping their order.
func BuildRules(configs []RuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(configs))
	for i, cfg := range configs {
		rule, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, cfg.Name, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Build converts a single rule config.
func (c RuleConfig) Build() (Rule, error) {
	if c.Name == "" {
		return Rule{}, fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if c.Category == "" {
		return Rule{}, fmt.Errorf("%w: category is required", ErrInvalidRule)
	}
	if len(c.Keywords) == 0 && len(c.Amounts) == 0 {
		return Rule{}, fmt.Errorf("%w: at least one keyword or amount condition is required", ErrInvalidRule)
	}

	var preds []Predicate
	if len(c.Keywords) > 0 {
		preds = append(preds, Contains(c.Keywords...))
	}

	for _, a := range c.Amounts {
		pred, err := a.predicate()
		if err != nil {
			return Rule{}, err
		}
		preds = append(preds, pred)
	}

	rule := Rule{
		Name:      c.Name,
		Category:  c.Category,
		Predicate: All(preds...),
	}

	if c.Confidence != nil {
		rule.Confidence = Conf(model.ClampConfidence(*c.Confidence))
	}

	if c.Action != "" {
		action, err := model.ParseAction(c.Action)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		rule.Action = Act(action)
	}

	return rule, nil
}

func (a AmountRuleValue) predicate() (Predicate, error) {
	column := AmountColumn(a.Column)
	if column == "" {
		column = ColumnSpent
	}
	if column != ColumnSpent && column != ColumnReceived {
		return nil, fmt.Errorf("%w: unknown amount column %q", ErrInvalidRule, a.Column)
	}

	cond := AmountCondition(a.Condition)
	switch cond {
	case AmountLessThan, AmountLessEqual, AmountEqual, AmountGreaterEqual, AmountGreaterThan:
	default:
		return nil, fmt.Errorf("%w: unknown amount condition %q", ErrInvalidRule, a.Condition)
	}

	value, err := decimal.NewFromString(a.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: amount value %q: %v", ErrInvalidRule, a.Value, err)
	}

	return Amount(column, cond, value), nil
}
