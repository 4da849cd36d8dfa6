package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	relaydesk_errors "relaydesk/pkg/errors"
)

type ctxKey string

var userIDKey ctxKey = "user_id"
var businessIDKey ctxKey = "business_id"
var roleKey ctxKey = "role"

const (
	RoleAgent  = "agent"
	RoleViewer = "viewer"
)

// WithAgentContext stores the middleware-resolved identity and tenant
// scope. Identity issuance itself happens upstream; the engine only ever
// reads these values.
func WithAgentContext(ctx context.Context, userID, businessID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, businessIDKey, businessID)
	ctx = context.WithValue(ctx, roleKey, role)
	return ctx
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func BusinessIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(businessIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	businessID, ok := value.(uuid.UUID)
	return businessID, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(roleKey)
	if value == nil {
		return "", false
	}
	role, ok := value.(string)
	return role, ok
}

// HTTPStatusForError maps service errors onto response codes.
func HTTPStatusForError(err error) int {
	switch {
	case errors.Is(err, relaydesk_errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, relaydesk_errors.ErrUnauthorized), errors.Is(err, relaydesk_errors.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, relaydesk_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, relaydesk_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, relaydesk_errors.ErrAlreadyExists), errors.Is(err, relaydesk_errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, relaydesk_errors.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
