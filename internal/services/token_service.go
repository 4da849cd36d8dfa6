package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"relaydesk/internal/config"
	relaydesk_errors "relaydesk/pkg/errors"
)

// AccessClaims is the dashboard session token. Tokens are minted by the
// identity service that fronts the dashboard; this side only verifies.
type AccessClaims struct {
	UserID     string `json:"sub"`
	BusinessID string `json:"bid"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService verifies dashboard access tokens.
type TokenService struct {
	secret []byte
}

func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{secret: []byte(cfg.JWTSecret)}
}

func (s *TokenService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, relaydesk_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, relaydesk_errors.ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil {
		return AccessClaims{}, relaydesk_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, relaydesk_errors.ErrUnauthorized
	}
	return *claims, nil
}

// MintAccessToken issues a signed token. Kept for local development and
// tests; production tokens come from the identity service.
func (s *TokenService) MintAccessToken(userID, businessID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:     userID.String(),
		BusinessID: businessID.String(),
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
