package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Payment pipeline errors
	ErrAmountMismatch    = errors.New("reported amount does not match stored payment amount")
	ErrInvalidTransition = errors.New("payment status transition not allowed")
	ErrMissingSecret     = errors.New("payment gateway secret is not configured")
	ErrMockDisabled      = errors.New("mock payments are disabled in this environment")
	ErrInvalidSignature  = errors.New("webhook signature is missing or invalid")
	ErrProductInactive   = errors.New("product is not available for purchase")
)
