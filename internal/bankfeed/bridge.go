package bankfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/bankfeed-autopilot/internal/common"
	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// BridgeConfig configures a BridgeClient.
type BridgeConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// BridgeClient drives the bank feed through an automation bridge sidecar that
// owns the browser session.
type BridgeClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewBridgeClient creates a bridge client.
func NewBridgeClient(cfg BridgeConfig) (*BridgeClient, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, common.MissingConfig("feed.bridge_url")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("%w: feed.bridge_url: %v", common.ErrInvalidConfig, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &BridgeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		token:      cfg.Token,
	}, nil
}

// bridgeRow is the row shape served by the bridge.
type bridgeRow struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Payee       string `json:"payee"`
	Category    string `json:"category"`
	Memo        string `json:"memo"`
	Spent       string `json:"spent"`
	Received    string `json:"received"`
	Status      string `json:"status"`
	Handle      string `json:"handle"`
}

// ReadForReview fetches the review queue.
func (c *BridgeClient) ReadForReview(ctx context.Context, limit int) ([]model.BankTransaction, error) {
	q := url.Values{}
	q.Set("status", string(model.StatusForReview))
	q.Set("limit", strconv.Itoa(normalizeLimit(limit)))

	var rows []bridgeRow
	if err := c.do(ctx, http.MethodGet, "/transactions?"+q.Encode(), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to read review queue: %w", err)
	}

	txns := make([]model.BankTransaction, 0, len(rows))
	for _, r := range rows {
		if len(txns) == normalizeLimit(limit) {
			break
		}
		txns = append(txns, model.BankTransaction{
			Date:        r.Date,
			Description: r.Description,
			Payee:       r.Payee,
			Category:    r.Category,
			Memo:        r.Memo,
			Spent:       r.Spent,
			Received:    r.Received,
			Status:      statusFromBridge(r.Status),
			RowHandle:   r.Handle,
		})
	}
	return txns, nil
}

// Apply asks the bridge to categorize the row and perform the action.
func (c *BridgeClient) Apply(ctx context.Context, handle, category string, action model.Action) error {
	if handle == "" {
		return fmt.Errorf("%w: empty row handle", ErrControlMissing)
	}

	body := map[string]string{"category": category, "action": string(action)}
	if err := c.do(ctx, http.MethodPost, "/rows/"+url.PathEscape(handle)+"/apply", body, nil); err != nil {
		return fmt.Errorf("failed to apply %s to row %s: %w", action, handle, err)
	}
	return nil
}

func (c *BridgeClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrSessionLost, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrSessionLost, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	case http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w (status %d): %s", ErrControlMissing, resp.StatusCode, strings.TrimSpace(string(respBody)))
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusGone:
		return fmt.Errorf("%w (status %d): %s", ErrSessionLost, resp.StatusCode, strings.TrimSpace(string(respBody)))
	default:
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w (status %d): %s", ErrSessionLost, resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return fmt.Errorf("bridge error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func statusFromBridge(s string) model.TransactionStatus {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")) {
	case "accepted":
		return model.StatusAccepted
	case "excluded":
		return model.StatusExcluded
	default:
		return model.StatusForReview
	}
}
