// Package pattern provides ordered, deterministic rules for categorizing bank feed transactions.
package pattern

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// Predicate reports whether a rule applies to a transaction.
type Predicate func(txn model.BankTransaction) bool

// Rule maps transactions satisfying a predicate to a category.
// Confidence and Action are optional; nil means "use the matcher default".
type Rule struct {
	Predicate  Predicate
	Confidence *float64
	Action     *model.Action
	Name       string
	Category   string
}

// Contains matches when any needle appears in the description, payee or memo.
// Matching is case-insensitive.
func Contains(needles ...string) Predicate {
	lowered := make([]string, 0, len(needles))
	for _, n := range needles {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			lowered = append(lowered, n)
		}
	}

	return func(txn model.BankTransaction) bool {
		hay := txn.SearchText()
		for _, n := range lowered {
			if strings.Contains(hay, n) {
				return true
			}
		}
		return false
	}
}

// AmountCondition is a comparison against a parsed amount column.
type AmountCondition string

// Amount condition constants.
const (
	AmountLessThan     AmountCondition = "lt"
	AmountLessEqual    AmountCondition = "le"
	AmountEqual        AmountCondition = "eq"
	AmountGreaterEqual AmountCondition = "ge"
	AmountGreaterThan  AmountCondition = "gt"
)

// AmountColumn selects which feed column an amount predicate reads.
type AmountColumn string

// Amount column constants.
const (
	ColumnSpent    AmountColumn = "spent"
	ColumnReceived AmountColumn = "received"
)

// Amount compares a parsed amount column against a value.
func Amount(column AmountColumn, cond AmountCondition, value decimal.Decimal) Predicate {
	return func(txn model.BankTransaction) bool {
		var amount decimal.Decimal
		switch column {
		case ColumnSpent:
			amount = txn.SpentAmount()
		case ColumnReceived:
			amount = txn.ReceivedAmount()
		default:
			return false
		}

		switch cond {
		case AmountLessThan:
			return amount.LessThan(value)
		case AmountLessEqual:
			return amount.LessThanOrEqual(value)
		case AmountEqual:
			return amount.Equal(value)
		case AmountGreaterEqual:
			return amount.GreaterThanOrEqual(value)
		case AmountGreaterThan:
			return amount.GreaterThan(value)
		}
		return false
	}
}

// SpentOver matches expenses strictly above limit.
func SpentOver(limit float64) Predicate {
	return Amount(ColumnSpent, AmountGreaterThan, decimal.NewFromFloat(limit))
}

// SpentUnder matches spent amounts strictly below limit.
func SpentUnder(limit float64) Predicate {
	return Amount(ColumnSpent, AmountLessThan, decimal.NewFromFloat(limit))
}

// All matches when every predicate matches.
func All(preds ...Predicate) Predicate {
	return func(txn model.BankTransaction) bool {
		for _, p := range preds {
			if !p(txn) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one predicate matches.
func Any(preds ...Predicate) Predicate {
	return func(txn model.BankTransaction) bool {
		for _, p := range preds {
			if p(txn) {
				return true
			}
		}
		return false
	}
}

// Conf returns a pointer for Rule.Confidence.
func Conf(c float64) *float64 { return &c }

// Act returns a pointer for Rule.Action.
func Act(a model.Action) *model.Action { return &a }
