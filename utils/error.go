package utils

import "errors"

// Sentinel errors for the reporting boundary. Handlers map these with
// errors.Is onto HTTP statuses (400 / 404); anything else is a 500.
var (
	// ErrInvalidDateRange covers a missing required date or dateTo before dateFrom.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrNotFound covers a referenced investor/vehicle/category that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidStatusTransition covers payout lifecycle violations.
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
