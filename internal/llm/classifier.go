package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

const systemPrompt = "Reply with strict JSON only. Do not include backticks or prose."

// Classifier categorizes transactions no rule could handle.
type Classifier struct {
	client    Client
	cache     *decisionCache
	logger    *slog.Logger
	threshold float64
}

// ClassifierOptions tunes a Classifier.
type ClassifierOptions struct {
	// ActionThreshold is the confidence at or above which an add/match action
	// is proposed when the model does not name one.
	ActionThreshold float64
	// CacheTTL controls how long answers are remembered; negative disables.
	CacheTTL time.Duration
}

// NewClassifier creates a classifier. A nil client yields a classifier that
// never decides, which is how an unconfigured provider behaves.
func NewClassifier(client Client, opts ClassifierOptions, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ActionThreshold <= 0 {
		opts.ActionThreshold = 0.7
	}

	return &Classifier{
		client:    client,
		cache:     newDecisionCache(opts.CacheTTL),
		logger:    logger,
		threshold: opts.ActionThreshold,
	}
}

// Enabled reports whether a provider is configured.
func (c *Classifier) Enabled() bool {
	return c != nil && c.client != nil
}

// Classify asks the model for a decision. It returns nil when the provider is
// unconfigured, unreachable, or answers in an unexpected shape.
func (c *Classifier) Classify(ctx context.Context, txn model.BankTransaction) *model.Decision {
	if !c.Enabled() {
		return nil
	}

	key := txn.Fingerprint()
	if cached, ok := c.cache.get(key); ok {
		c.logger.Debug("cache hit for transaction", "description", txn.Description)
		return &cached
	}

	text, err := c.client.Complete(ctx, systemPrompt, buildPrompt(txn))
	if err != nil {
		c.logger.Warn("LLM classification failed", "description", txn.Description, "error", err)
		return nil
	}

	answer, err := parseAnswer(text)
	if err != nil {
		c.logger.Warn("Unparsable LLM response", "description", txn.Description, "error", err)
		return nil
	}

	decision := c.toDecision(txn, answer)
	c.cache.set(key, decision)

	c.logger.Info("transaction classified by AI",
		"description", txn.Description,
		"category", decision.Category,
		"confidence", decision.Confidence,
		"action", decision.Action)

	return &decision
}

func (c *Classifier) toDecision(txn model.BankTransaction, answer modelAnswer) model.Decision {
	confidence := defaultConfidence
	if answer.Confidence != nil {
		confidence = *answer.Confidence
	}
	confidence = model.ClampConfidence(confidence)

	d := model.Decision{
		Category:   answer.Category,
		Confidence: confidence,
		Reason:     answer.Reason,
		Source:     model.SourceAI,
	}

	if action, err := model.ParseAction(strings.TrimSpace(answer.Action)); err == nil {
		d.Action = action
		d.ExplicitAction = true
		return d
	}

	switch {
	case confidence < c.threshold:
		d.Action = model.ActionMarkForReview
	case txn.IsRevenue():
		d.Action = model.ActionMatch
	default:
		d.Action = model.ActionAdd
	}
	return d
}

// promptTransaction is the compact summary sent to the model.
type promptTransaction struct {
	Date            string  `json:"date"`
	Description     string  `json:"description"`
	Payee           string  `json:"payee"`
	Memo            string  `json:"memo"`
	CurrentCategory string  `json:"currentCategory"`
	Side            string  `json:"side"`
	Amount          float64 `json:"amount"`
	IsRevenue       bool    `json:"isRevenue"`
}

func buildPrompt(txn model.BankTransaction) string {
	amount, _ := txn.AbsAmount().Float64()
	compact := promptTransaction{
		Date:            txn.Date,
		Description:     txn.Description,
		Payee:           txn.Payee,
		Memo:            txn.Memo,
		CurrentCategory: txn.Category,
		Amount:          amount,
		Side:            string(txn.Side()),
		IsRevenue:       txn.IsRevenue(),
	}

	encoded, err := json.Marshal(compact)
	if err != nil {
		// Only plain strings and numbers; cannot fail in practice.
		encoded = []byte("{}")
	}

	return strings.Join([]string{
		"You are an experienced accountant categorizing bank feed transactions in an accounting application.",
		`Return STRICT JSON only: {"category": string, "confidence": number, "reason": string, "action": string}.`,
		"Confidence is 0..1. Choose an accounting-friendly category name (e.g., \"Office Supplies\", \"Advertising\", \"Bank Charges\", \"Software\", \"Travel\", \"Meals & Entertainment\").",
		`"action" is optional: "add" for expenses to record, "match" for revenue that matches an existing record, "mark_for_review" when a human should look.`,
		"If uncertain, pick the most likely category and reduce confidence.",
		"Transaction: " + string(encoded),
	}, "\n")
}
