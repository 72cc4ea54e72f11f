package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fivetwenty-io/libadmin/internal/constants"
)

// TokenClaims is the subset of JWT claims shown to users.
type TokenClaims struct {
	Subject   string    `json:"subject"              yaml:"subject"`
	Role      string    `json:"role,omitempty"       yaml:"role,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"  yaml:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// ParseClaims decodes a JWT without verifying its signature.
func ParseClaims(token string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidJWTFormat, err)
	}

	result := &TokenClaims{}

	result.Subject, err = claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("reading subject claim: %w", err)
	}

	if role, ok := claims["role"].(string); ok {
		result.Role = role
	}

	issuedAt, err := claims.GetIssuedAt()
	if err == nil && issuedAt != nil {
		result.IssuedAt = issuedAt.Time
	}

	expiresAt, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("reading expiration claim: %w", err)
	}

	if expiresAt != nil {
		result.ExpiresAt = expiresAt.Time
	}

	return result, nil
}

// ExpiryFromJWT returns the exp claim of token.
func ExpiryFromJWT(token string) (time.Time, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return time.Time{}, err
	}

	if claims.ExpiresAt.IsZero() {
		return time.Time{}, constants.ErrNoExpirationClaim
	}

	return claims.ExpiresAt, nil
}
