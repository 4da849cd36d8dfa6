package relaydesk_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrRateLimited        = errors.New("rate limited")
	ErrAlreadyExists      = errors.New("already exists")
	ErrStaleReceipt       = errors.New("stale delivery receipt")
	ErrNotOptedIn         = errors.New("contact not opted in")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
