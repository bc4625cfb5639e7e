//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"saju-content-payments/internal/domain/model"
)

func newTestAdminServer(payUC *mockPaymentUC) *AdminServer {
	auth := NewAuthManager("test-jwt-secret", false, "", 30*time.Minute)
	return NewAdminServer(payUC, "test-api-key", auth, newTestLogger())
}

func adminLogin(t *testing.T, srv *AdminServer) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"apiKey":"test-api-key"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Token == "" {
		t.Fatal("empty token")
	}
	return resp.Data.Token
}

func TestAdminLogin(t *testing.T) {
	t.Run("wrong api key is forbidden", func(t *testing.T) {
		srv := newTestAdminServer(&mockPaymentUC{})
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"apiKey":"guess"}`))
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("correct key mints a bearer token", func(t *testing.T) {
		srv := newTestAdminServer(&mockPaymentUC{})
		adminLogin(t, srv)
	})
}

func TestAdminPaymentEndpoints(t *testing.T) {
	t.Run("protected routes require a session", func(t *testing.T) {
		srv := newTestAdminServer(&mockPaymentUC{})
		req := httptest.NewRequest(http.MethodGet, "/admin/payments/ord_1", nil)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("lookup with a bearer token", func(t *testing.T) {
		payUC := &mockPaymentUC{
			GetByOrderIDFunc: func(ctx context.Context, orderID string) (*model.Payment, error) {
				return &model.Payment{OrderID: orderID, Status: model.PaymentStatusDone}, nil
			},
		}
		srv := newTestAdminServer(payUC)
		token := adminLogin(t, srv)

		req := httptest.NewRequest(http.MethodGet, "/admin/payments/ord_1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("cancel requires a reason", func(t *testing.T) {
		payUC := &mockPaymentUC{
			CancelFunc: func(ctx context.Context, orderID, reason string) (*model.Payment, error) {
				t.Error("cancel must not run without a reason")
				return nil, nil
			},
		}
		srv := newTestAdminServer(payUC)
		token := adminLogin(t, srv)

		req := httptest.NewRequest(http.MethodPost, "/admin/payments/ord_1/cancel", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("cancel runs with a reason", func(t *testing.T) {
		now := time.Now()
		var gotReason string
		payUC := &mockPaymentUC{
			CancelFunc: func(ctx context.Context, orderID, reason string) (*model.Payment, error) {
				gotReason = reason
				return &model.Payment{OrderID: orderID, Status: model.PaymentStatusCanceled, CanceledAt: &now}, nil
			},
		}
		srv := newTestAdminServer(payUC)
		token := adminLogin(t, srv)

		req := httptest.NewRequest(http.MethodPost, "/admin/payments/ord_1/cancel",
			strings.NewReader(`{"reason":"환불 요청"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if gotReason != "환불 요청" {
			t.Errorf("reason = %q", gotReason)
		}
	})

	t.Run("metrics endpoint is open", func(t *testing.T) {
		srv := newTestAdminServer(&mockPaymentUC{})
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}
