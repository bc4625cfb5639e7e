package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"saju-content-payments/internal/domain"
)

// API error codes surfaced to clients on the confirmation path.
const (
	codeInvalidRequest     = "INVALID_REQUEST"
	codeAmountMismatch     = "AMOUNT_MISMATCH"
	codePaymentNotFound    = "PAYMENT_NOT_FOUND"
	codePaymentFailed      = "PAYMENT_FAILED"
	codeMissingTossSecret  = "MISSING_TOSS_SECRET"
	codeMockDisabled       = "MOCK_PAYMENT_DISABLED"
	codeProductNotFound    = "PRODUCT_NOT_FOUND"
	codeProductUnavailable = "PRODUCT_UNAVAILABLE"
	codeInternalError      = "INTERNAL_ERROR"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiResponse{Success: false, Error: &apiError{Code: code, Message: message}})
}

// writeDomainError maps domain sentinel errors onto the confirm
// endpoint's error contract. Anything unrecognized becomes a generic
// 500 so internals never leak.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "missing or invalid request fields")
	case errors.Is(err, domain.ErrAmountMismatch):
		writeError(w, http.StatusBadRequest, codeAmountMismatch, "amount does not match the order")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codePaymentNotFound, "payment not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, codePaymentFailed, "payment is not in a confirmable state")
	case errors.Is(err, domain.ErrMissingSecret):
		writeError(w, http.StatusInternalServerError, codeMissingTossSecret, "payment gateway is not configured")
	case errors.Is(err, domain.ErrMockDisabled):
		writeError(w, http.StatusInternalServerError, codeMockDisabled, "mock payments are disabled")
	case errors.Is(err, domain.ErrProductInactive):
		writeError(w, http.StatusBadRequest, codeProductUnavailable, "product is not available")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
