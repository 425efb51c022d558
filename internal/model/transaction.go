// Package model defines the core data structures for the autopilot.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the review state of a bank feed row.
type TransactionStatus string

// Transaction status constants.
const (
	StatusForReview TransactionStatus = "for_review"
	StatusAccepted  TransactionStatus = "accepted"
	StatusExcluded  TransactionStatus = "excluded"
)

// Side is the direction money moved for a transaction.
type Side string

// Side constants.
const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// BankTransaction is one row of the accounting application's "for review" queue.
// It is built by a bank feed collaborator and never mutated by the engine.
type BankTransaction struct {
	Date        string            `json:"date"`
	Description string            `json:"description"`
	Payee       string            `json:"payee"`
	Category    string            `json:"category,omitempty"` // category already shown in the feed
	Memo        string            `json:"memo,omitempty"`
	Spent       string            `json:"spent"`    // raw currency text, e.g. "$42.10"
	Received    string            `json:"received"` // raw currency text
	Status      TransactionStatus `json:"status"`
	RowHandle   string            `json:"row_handle,omitempty"` // opaque address of the row in the feed UI
}

// SpentAmount returns the parsed spent column.
func (t BankTransaction) SpentAmount() decimal.Decimal {
	return ParseAmount(t.Spent)
}

// ReceivedAmount returns the parsed received column.
func (t BankTransaction) ReceivedAmount() decimal.Decimal {
	return ParseAmount(t.Received)
}

// IsRevenue reports whether money came in.
func (t BankTransaction) IsRevenue() bool {
	return t.ReceivedAmount().IsPositive()
}

// Side returns debit when anything was spent and credit otherwise.
func (t BankTransaction) Side() Side {
	if t.SpentAmount().IsPositive() {
		return SideDebit
	}
	return SideCredit
}

// AbsAmount returns the magnitude of whichever column carries the money.
func (t BankTransaction) AbsAmount() decimal.Decimal {
	if spent := t.SpentAmount(); spent.IsPositive() {
		return spent
	}
	return t.ReceivedAmount().Abs()
}

// SearchText is the lower-cased text that keyword rules look at.
func (t BankTransaction) SearchText() string {
	return strings.ToLower(t.Description + " " + t.Payee + " " + t.Memo)
}

// Fingerprint identifies a transaction across scrapes.
func (t BankTransaction) Fingerprint() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.Date,
		strings.ToLower(strings.TrimSpace(t.Description)),
		strings.ToLower(strings.TrimSpace(t.Payee)),
		t.SpentAmount().StringFixed(2),
		t.ReceivedAmount().StringFixed(2))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
