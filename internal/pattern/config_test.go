package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

func TestBuildRules(t *testing.T) {
	configs := []RuleConfig{
		{
			Name:       "Gusto payroll",
			Keywords:   []string{"gusto"},
			Category:   "Payroll Expenses",
			Confidence: Conf(0.95),
			Action:     "add",
		},
		{
			Name:     "Big deposit",
			Category: "Sales",
			Amounts: []AmountRuleValue{
				{Column: "received", Condition: "ge", Value: "10000"},
			},
		},
	}

	rules, err := BuildRules(configs)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	m := NewMatcher(rules)

	got, ok := m.Match(model.BankTransaction{Description: "GUSTO PAYROLL 0415", Spent: "$8,000.00"})
	require.True(t, ok)
	assert.Equal(t, "Payroll Expenses", got.Category)
	assert.Equal(t, model.ActionAdd, got.Action)
	assert.True(t, got.ExplicitAction)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)

	got, ok = m.Match(model.BankTransaction{Description: "Deposit", Received: "$12,000.00"})
	require.True(t, ok)
	assert.Equal(t, "Big deposit", got.Reason)
	assert.Equal(t, model.ActionMarkForReview, got.Action)
	assert.False(t, got.ExplicitAction)

	_, ok = m.Match(model.BankTransaction{Description: "Deposit", Received: "$50.00"})
	assert.False(t, ok)
}

func TestRuleConfig_KeywordsAndAmounts(t *testing.T) {
	rule, err := RuleConfig{
		Name:     "Small coffee",
		Category: "Meals & Entertainment",
		Keywords: []string{"coffee"},
		Amounts:  []AmountRuleValue{{Condition: "lt", Value: "20"}},
	}.Build()
	require.NoError(t, err)

	assert.True(t, rule.Predicate(model.BankTransaction{Description: "Blue Bottle Coffee", Spent: "$6.50"}))
	assert.False(t, rule.Predicate(model.BankTransaction{Description: "Blue Bottle Coffee", Spent: "$60.00"}))
	assert.False(t, rule.Predicate(model.BankTransaction{Description: "Bakery", Spent: "$6.50"}))
}

func TestRuleConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  RuleConfig
	}{
		{name: "missing name", cfg: RuleConfig{Category: "X", Keywords: []string{"x"}}},
		{name: "missing category", cfg: RuleConfig{Name: "x", Keywords: []string{"x"}}},
		{name: "no criteria", cfg: RuleConfig{Name: "x", Category: "X"}},
		{name: "bad action", cfg: RuleConfig{Name: "x", Category: "X", Keywords: []string{"x"}, Action: "auto_accept"}},
		{name: "bad column", cfg: RuleConfig{Name: "x", Category: "X", Amounts: []AmountRuleValue{{Column: "balance", Condition: "gt", Value: "1"}}}},
		{name: "bad condition", cfg: RuleConfig{Name: "x", Category: "X", Amounts: []AmountRuleValue{{Condition: "between", Value: "1"}}}},
		{name: "bad value", cfg: RuleConfig{Name: "x", Category: "X", Amounts: []AmountRuleValue{{Condition: "gt", Value: "lots"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Build()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestBuildRules_ReportsPosition(t *testing.T) {
	_, err := BuildRules([]RuleConfig{
		{Name: "ok", Category: "A", Keywords: []string{"a"}},
		{Name: "bad", Category: "B"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 2 (bad)")
}
