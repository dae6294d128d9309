// Package payment talks to the Razorpay Orders API and verifies the
// checkout signatures it hands back to clients.
package payment

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
	"net/url"
	"strings"
	"time"
)

// Order is the subset of a gateway order the marketplace uses.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
	Notes    Notes  `json:"notes"`
}

// Notes are free-form order annotations. The API encodes an empty set as
// [] rather than {}.
type Notes map[string]string

// UnmarshalJSON accepts both an object and an empty array.
func (n *Notes) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); bytes.HasPrefix(trimmed, []byte("[")) {
		*n = nil
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*n = m
	return nil
}

// OrderRequest opens an order. Amount is in minor currency units.
type OrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes,omitempty"`
}

// Gateway is the payment-gateway surface used by the payment service.
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Razorpay is an HTTP client for the Razorpay REST API.
type Razorpay struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// Ensure Razorpay implements Gateway
var _ Gateway = (*Razorpay)(nil)

// NewRazorpay creates a client. baseURL is normally https://api.razorpay.com.
func NewRazorpay(keyID, keySecret, baseURL string) *Razorpay {
	return &Razorpay{
		keyID:      keyID,
		keySecret:  keySecret,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether API credentials are present.
func (r *Razorpay) Configured() bool {
	return r.keyID != "" && r.keySecret != ""
}

// KeyID is the public key the browser checkout needs.
func (r *Razorpay) KeyID() string {
	return r.keyID
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens an order with the gateway.
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}
	var order Order
	if err := r.do(ctx, http.MethodPost, "/v1/orders", bytes.NewReader(payload), &order); err != nil {
		return nil, fmt.Errorf("create razorpay order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("create razorpay order: response missing order id")
	}
	return &order, nil
}

// FetchOrder loads an order by id.
func (r *Razorpay) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := r.do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
		return nil, fmt.Errorf("fetch razorpay order %s: %w", orderID, err)
	}
	return &order, nil
}

func (r *Razorpay) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.SetBasicAuth(r.keyID, r.keySecret)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Description != "" {
			msg = apiErr.Error.Description
		}
		return fmt.Errorf("status=%d message=%s", resp.StatusCode, msg)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// VerifySignature checks a checkout signature: hex HMAC-SHA256 over
// "orderID|paymentID" keyed with the API secret, compared in constant time.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(r.keySecret, orderID, paymentID, signature)
}

// Sign returns the expected checkout signature for an order/payment pair.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature is the package-level form of Razorpay.VerifySignature.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
