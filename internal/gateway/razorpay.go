// Package gateway talks to the Razorpay orders API and verifies checkout signatures.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/badabuilder/marketplace/internal/apperr"
)

const defaultBaseURL = "https://api.razorpay.com"

type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// Order is the subset of the gateway's order object the services use.
type Order struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"-"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
	Status   string          `json:"status"`
}

type Razorpay struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
	now       func() time.Time
}

// NewRazorpay builds the client once at startup. Missing credentials are a
// configuration error rather than something discovered on first use.
func NewRazorpay(cfg Config) (*Razorpay, error) {
	if strings.TrimSpace(cfg.KeyID) == "" || strings.TrimSpace(cfg.KeySecret) == "" {
		return nil, apperr.Config("razorpay key id and key secret are required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Razorpay{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		now:       time.Now,
	}, nil
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens an order for amount, given in major currency units.
// The gateway expects minor units (paise), so the amount is scaled by 100.
func (c *Razorpay) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*Order, error) {
	if c == nil || c.keyID == "" || c.keySecret == "" {
		return nil, apperr.GatewayUnavailable("payment gateway is not configured", nil)
	}
	minor, err := ToMinorUnits(amount)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = "INR"
	}
	if receipt == "" {
		receipt = fmt.Sprintf("receipt_%d", c.now().UnixMilli())
	}

	body, err := json.Marshal(orderRequest{Amount: minor, Currency: currency, Receipt: receipt})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.GatewayUnavailable("build order request", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.GatewayUnavailable("razorpay order creation failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.GatewayUnavailable("read order response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		return nil, apperr.GatewayUnavailable("razorpay order creation failed",
			fmt.Errorf("status %d: %s %s", resp.StatusCode, e.Error.Code, e.Error.Description))
	}

	var out orderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperr.GatewayUnavailable("decode order response", err)
	}
	if out.ID == "" {
		return nil, apperr.GatewayUnavailable("razorpay returned an order without id", nil)
	}
	return &Order{
		ID:       out.ID,
		Amount:   decimal.New(out.Amount, -2),
		Currency: out.Currency,
		Receipt:  out.Receipt,
		Status:   out.Status,
	}, nil
}

// VerifyPayment checks the checkout signature locally. A mismatch is a
// false result, not an error.
func (c *Razorpay) VerifyPayment(orderID, paymentID, signature string) (bool, error) {
	if c == nil || c.keySecret == "" {
		return false, apperr.Config("razorpay key secret is missing")
	}
	expected := Sign(c.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" under secret.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// ToMinorUnits converts a positive amount with at most two decimals to paise.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, apperr.Validation("amount must be positive")
	}
	minor := amount.Shift(2)
	if !minor.IsInteger() {
		return 0, apperr.Validation("amount has more than two decimal places")
	}
	return minor.IntPart(), nil
}
