// Package payment talks to the payment gateway that creates payment orders
// and signs successful payments.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/safar/agrocart/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreatePayment asks the gateway for a payment order of amount minor units.
func (c *Client) CreatePayment(ctx context.Context, amount int64, currency string) (models.PaymentIntent, error) {
	jsonData, err := json.Marshal(createOrderRequest{Amount: amount, Currency: currency})
	if err != nil {
		return models.PaymentIntent{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/create-order", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return models.PaymentIntent{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.PaymentIntent{}, fmt.Errorf("call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.PaymentIntent{}, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var intent models.PaymentIntent
		if err := json.Unmarshal(body, &intent); err != nil {
			return models.PaymentIntent{}, fmt.Errorf("unmarshal response: %w", err)
		}
		if intent.ID == "" {
			return models.PaymentIntent{}, errors.New("payment gateway returned no order id")
		}
		if intent.Amount == 0 {
			intent.Amount = amount
		}
		if intent.Currency == "" {
			intent.Currency = currency
		}
		return intent, nil
	case resp.StatusCode == http.StatusBadRequest:
		return models.PaymentIntent{}, fmt.Errorf("payment gateway rejected order: %s", string(body))
	default:
		return models.PaymentIntent{}, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" under secret.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a payment signature in constant time.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
