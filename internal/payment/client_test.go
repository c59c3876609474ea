package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreatePayment(t *testing.T) {
	var got createOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/create-order" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_123","amount":17099,"currency":"INR"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	intent, err := c.CreatePayment(context.Background(), 17099, "INR")
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	if got.Amount != 17099 || got.Currency != "INR" {
		t.Errorf("Unexpected request body %+v", got)
	}
	if intent.ID != "order_123" || intent.Amount != 17099 || intent.Currency != "INR" {
		t.Errorf("Unexpected intent %+v", intent)
	}
}

func TestCreatePaymentErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad request", http.StatusBadRequest, `{"error":"amount too small"}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"missing id", http.StatusOK, `{"amount":100}`},
		{"malformed", http.StatusOK, `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).CreatePayment(context.Background(), 100, "INR")
			if err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	sig := Sign("secret", "order_123", "pay_456")

	if !VerifySignature("secret", "order_123", "pay_456", sig) {
		t.Error("Expected valid signature")
	}
	if VerifySignature("secret", "order_123", "pay_999", sig) {
		t.Error("Signature for another payment should not verify")
	}
	if VerifySignature("other", "order_123", "pay_456", sig) {
		t.Error("Signature under another secret should not verify")
	}
}
