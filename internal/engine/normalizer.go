package engine

import (
	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// Normalize enforces the direction invariant on a decision. Money received is
// always matched against an existing record; money spent is added unless the
// upstream source fixed the action. Category, confidence and reason pass
// through.
func Normalize(txn model.BankTransaction, d model.Decision) model.Decision {
	d.Confidence = model.ClampConfidence(d.Confidence)

	switch {
	case txn.ReceivedAmount().IsPositive():
		d.Action = model.ActionMatch
	case txn.SpentAmount().IsPositive() && !d.ExplicitAction:
		d.Action = model.ActionAdd
	}
	return d
}
