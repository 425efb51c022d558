package bankfeed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/bankfeed-autopilot/internal/common"
	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// OFXFeed serves an OFX/QFX statement as the review queue. Applied actions are
// kept in memory so a rule set can be rehearsed against real bank data.
type OFXFeed struct {
	logger  *slog.Logger
	path    string
	known   map[string]bool
	applied []Applied
	mu      sync.Mutex
}

// NewOFXFeed creates a feed over the statement at path.
func NewOFXFeed(path string, logger *slog.Logger) (*OFXFeed, error) {
	if strings.TrimSpace(path) == "" {
		return nil, common.MissingConfig("feed.ofx_path")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OFXFeed{path: path, logger: logger, known: make(map[string]bool)}, nil
}

// ReadForReview parses the statement and returns its first limit transactions.
func (f *OFXFeed) ReadForReview(_ context.Context, limit int) ([]model.BankTransaction, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OFX file: %w", err)
	}
	defer func() { _ = file.Close() }()

	txns, err := ParseStatement(file)
	if err != nil {
		return nil, err
	}

	if limit = normalizeLimit(limit); len(txns) > limit {
		txns = txns[:limit]
	}

	f.mu.Lock()
	for _, t := range txns {
		f.known[t.RowHandle] = true
	}
	f.mu.Unlock()

	f.logger.Info("Loaded OFX statement", "path", f.path, "transactions", len(txns))
	return txns, nil
}

// Apply records the action for a row that was read from the statement.
func (f *OFXFeed) Apply(_ context.Context, handle, category string, action model.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.known[handle] {
		return fmt.Errorf("%w: %q", ErrControlMissing, handle)
	}
	f.applied = append(f.applied, Applied{Handle: handle, Category: category, Action: action})
	return nil
}

// Applied returns the actions recorded so far.
func (f *OFXFeed) Applied() []Applied {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Applied, len(f.applied))
	copy(out, f.applied)
	return out
}

// preprocessOFX fixes common formatting issues in bank-exported OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseStatement converts every bank and credit card transaction in an OFX
// document into a review row.
func ParseStatement(r io.Reader) ([]model.BankTransaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var txns []model.BankTransaction
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			for _, t := range stmt.BankTranList.Transactions {
				txns = append(txns, convertTransaction(t))
			}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			for _, t := range stmt.BankTranList.Transactions {
				txns = append(txns, convertTransaction(t))
			}
		}
	}

	return txns, nil
}

func convertTransaction(t ofxgo.Transaction) model.BankTransaction {
	txn := model.BankTransaction{
		Date:        t.DtPosted.Format("2006-01-02"),
		Description: strings.TrimSpace(string(t.Name)),
		Memo:        strings.TrimSpace(string(t.Memo)),
		Status:      model.StatusForReview,
		RowHandle:   string(t.FiTID),
	}
	if t.Payee != nil {
		txn.Payee = strings.TrimSpace(string(t.Payee.Name))
		if txn.Description == "" {
			txn.Description = txn.Payee
		}
	}

	// OFX signs debits negative.
	amount := "$" + new(big.Rat).Abs(&t.TrnAmt.Rat).FloatString(2)
	if t.TrnAmt.Sign() < 0 {
		txn.Spent = amount
	} else {
		txn.Received = amount
	}
	return txn
}
