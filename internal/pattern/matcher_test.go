package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name       string
		rules      []Rule
		txn        model.BankTransaction
		wantReason string
		wantCat    string
		wantConf   float64
		wantAction model.Action
		wantOK     bool
		explicit   bool
	}{
		{
			name: "keyword in description",
			rules: []Rule{
				{Name: "amazon", Predicate: Contains("amazon"), Category: "Office Supplies", Confidence: Conf(0.9), Action: Act(model.ActionAdd)},
			},
			txn:        model.BankTransaction{Description: "AMAZON MKTPLACE", Spent: "$42.10"},
			wantOK:     true,
			wantReason: "amazon",
			wantCat:    "Office Supplies",
			wantConf:   0.9,
			wantAction: model.ActionAdd,
			explicit:   true,
		},
		{
			name: "keyword in payee",
			rules: []Rule{
				{Name: "stripe", Predicate: Contains("Stripe Fee"), Category: "Bank Charges"},
			},
			txn:        model.BankTransaction{Description: "Transfer", Payee: "STRIPE FEE"},
			wantOK:     true,
			wantReason: "stripe",
			wantCat:    "Bank Charges",
			wantConf:   DefaultConfidence,
			wantAction: DefaultAction,
		},
		{
			name: "keyword in memo",
			rules: []Rule{
				{Name: "hotel", Predicate: Contains("hotel"), Category: "Travel"},
			},
			txn:        model.BankTransaction{Description: "VISA 1234", Memo: "Hilton Hotel"},
			wantOK:     true,
			wantReason: "hotel",
			wantCat:    "Travel",
			wantConf:   DefaultConfidence,
			wantAction: DefaultAction,
		},
		{
			name: "first matching rule wins",
			rules: []Rule{
				{Name: "first", Predicate: Contains("amazon"), Category: "Office Supplies"},
				{Name: "second", Predicate: Contains("amazon"), Category: "Shopping", Confidence: Conf(0.99)},
			},
			txn:        model.BankTransaction{Description: "Amazon"},
			wantOK:     true,
			wantReason: "first",
			wantCat:    "Office Supplies",
			wantConf:   DefaultConfidence,
			wantAction: DefaultAction,
		},
		{
			name: "later rule when earlier does not match",
			rules: []Rule{
				{Name: "first", Predicate: Contains("paypal"), Category: "Bank Charges"},
				{Name: "second", Predicate: SpentOver(1000), Category: "Review Required"},
			},
			txn:        model.BankTransaction{Description: "Wire", Spent: "$1,500.00"},
			wantOK:     true,
			wantReason: "second",
			wantCat:    "Review Required",
			wantConf:   DefaultConfidence,
			wantAction: DefaultAction,
		},
		{
			name: "out of range confidence clamped",
			rules: []Rule{
				{Name: "hot", Predicate: Contains("x"), Category: "X", Confidence: Conf(1.5)},
			},
			txn:        model.BankTransaction{Description: "x"},
			wantOK:     true,
			wantReason: "hot",
			wantCat:    "X",
			wantConf:   1.0,
			wantAction: DefaultAction,
		},
		{
			name: "negative confidence clamped",
			rules: []Rule{
				{Name: "cold", Predicate: Contains("x"), Category: "X", Confidence: Conf(-0.2)},
			},
			txn:        model.BankTransaction{Description: "x"},
			wantOK:     true,
			wantReason: "cold",
			wantCat:    "X",
			wantConf:   0.0,
			wantAction: DefaultAction,
		},
		{
			name: "nil predicate never matches",
			rules: []Rule{
				{Name: "broken", Category: "X"},
			},
			txn: model.BankTransaction{Description: "x"},
		},
		{
			name: "no rules",
			txn:  model.BankTransaction{Description: "anything"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(tt.rules)
			got, ok := m.Match(tt.txn)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.Equal(t, tt.wantCat, got.Category)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			assert.Equal(t, tt.wantAction, got.Action)
			assert.Equal(t, tt.explicit, got.ExplicitAction)
			assert.Equal(t, model.SourceRule, got.Source)
		})
	}
}

func TestMatcher_Idempotent(t *testing.T) {
	m := NewMatcher(DefaultRules())
	txn := model.BankTransaction{Description: "Delta flight 123", Spent: "$320.00"}

	first, ok := m.Match(txn)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, ok := m.Match(txn)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestMatcher_OwnsRules(t *testing.T) {
	rules := []Rule{{Name: "a", Predicate: Contains("a"), Category: "A"}}
	m := NewMatcher(rules)

	rules[0].Category = "mutated"

	got, ok := m.Match(model.BankTransaction{Description: "a"})
	require.True(t, ok)
	assert.Equal(t, "A", got.Category)
	assert.Len(t, m.Rules(), 1)
}

func TestPredicates(t *testing.T) {
	txn := model.BankTransaction{Description: "Office supplies", Spent: "$25.00"}

	assert.True(t, All(SpentUnder(50), Contains("supplies"))(txn))
	assert.False(t, All(SpentUnder(10), Contains("supplies"))(txn))
	assert.True(t, Any(SpentOver(1000), Contains("office"))(txn))
	assert.False(t, Any()(txn))
	assert.True(t, All()(txn))
	assert.False(t, Contains("", "  ")(txn), "blank needles never match")

	revenue := model.BankTransaction{Received: "$500.00"}
	assert.True(t, Amount(ColumnReceived, AmountGreaterEqual, decimalFromString(t, "500"))(revenue))
	assert.False(t, Amount(ColumnReceived, AmountGreaterThan, decimalFromString(t, "500"))(revenue))
	assert.True(t, Amount(ColumnReceived, AmountEqual, decimalFromString(t, "500.00"))(revenue))
	assert.True(t, Amount(ColumnSpent, AmountLessEqual, decimalFromString(t, "0"))(revenue))
	assert.False(t, Amount("balance", AmountEqual, decimalFromString(t, "0"))(revenue))
}
