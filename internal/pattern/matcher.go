package pattern

import (
	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// Defaults applied to a matched rule that leaves them unset.
const (
	DefaultConfidence = 0.8
	DefaultAction     = model.ActionMarkForReview
)

// Matcher evaluates an ordered rule list. The first matching rule wins.
type Matcher struct {
	rules []Rule
}

// NewMatcher creates a matcher over a copy of rules, preserving their order.
func NewMatcher(rules []Rule) *Matcher {
	owned := make([]Rule, len(rules))
	copy(owned, rules)
	return &Matcher{rules: owned}
}

// Rules returns the rules in evaluation order.
func (m *Matcher) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

// Match returns the decision of the first rule whose predicate holds.
func (m *Matcher) Match(txn model.BankTransaction) (model.Decision, bool) {
	for _, rule := range m.rules {
		if rule.Predicate == nil || !rule.Predicate(txn) {
			continue
		}
		return decisionFor(rule), true
	}
	return model.Decision{}, false
}

func decisionFor(rule Rule) model.Decision {
	d := model.Decision{
		Category:   rule.Category,
		Confidence: DefaultConfidence,
		Action:     DefaultAction,
		Reason:     rule.Name,
		Source:     model.SourceRule,
	}

	if rule.Confidence != nil {
		d.Confidence = *rule.Confidence
	}
	d.Confidence = model.ClampConfidence(d.Confidence)

	if rule.Action != nil {
		d.Action = *rule.Action
		d.ExplicitAction = true
	}

	return d
}
