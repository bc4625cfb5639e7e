package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"saju-content-payments/internal/domain/ports/adapter"
	"saju-content-payments/internal/infra/metrics"
)

// TossGateway implements adapter.PaymentGateway against the Toss
// Payments v1 REST API using direct HTTP calls.
type TossGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewTossGateway(secretKey, baseURL string) *TossGateway {
	if baseURL == "" {
		baseURL = "https://api.tosspayments.com"
	}
	return &TossGateway{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *TossGateway) Name() string { return "toss" }

// tossPaymentResponse is the subset of the Toss payment object this
// pipeline cares about.
type tossPaymentResponse struct {
	PaymentKey  string     `json:"paymentKey"`
	OrderID     string     `json:"orderId"`
	Status      string     `json:"status"`
	Method      string     `json:"method"`
	TotalAmount int64      `json:"totalAmount"`
	ApprovedAt  *time.Time `json:"approvedAt"`
}

type tossErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (g *TossGateway) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*adapter.ConfirmResult, error) {
	body := map[string]interface{}{
		"paymentKey": paymentKey,
		"orderId":    orderID,
		"amount":     amount,
	}
	return g.call(ctx, http.MethodPost, "/v1/payments/confirm", body, "confirm")
}

func (g *TossGateway) Cancel(ctx context.Context, paymentKey, reason string) (*adapter.ConfirmResult, error) {
	body := map[string]interface{}{
		"cancelReason": reason,
	}
	path := fmt.Sprintf("/v1/payments/%s/cancel", url.PathEscape(paymentKey))
	return g.call(ctx, http.MethodPost, path, body, "cancel")
}

func (g *TossGateway) GetByOrderID(ctx context.Context, orderID string) (*adapter.ConfirmResult, error) {
	path := fmt.Sprintf("/v1/payments/orders/%s", url.PathEscape(orderID))
	return g.call(ctx, http.MethodGet, path, nil, "get")
}

func (g *TossGateway) call(ctx context.Context, method, path string, body map[string]interface{}, op string) (*adapter.ConfirmResult, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+basicAuth(g.secretKey))
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	metrics.ObserveGatewayLatency(op, err == nil, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var tossErr tossErrorResponse
		if json.Unmarshal(raw, &tossErr) == nil && tossErr.Code != "" {
			return nil, &adapter.GatewayError{Code: tossErr.Code, Message: tossErr.Message}
		}
		return nil, &adapter.GatewayError{
			Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message: string(raw),
		}
	}

	var pr tossPaymentResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w, body: %s", err, string(raw))
	}

	return &adapter.ConfirmResult{
		PaymentKey: pr.PaymentKey,
		OrderID:    pr.OrderID,
		Status:     pr.Status,
		Method:     pr.Method,
		Amount:     pr.TotalAmount,
		ApprovedAt: pr.ApprovedAt,
	}, nil
}

// basicAuth encodes "secretKey:" (empty password) per the Toss API docs.
func basicAuth(secretKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(secretKey + ":"))
}
