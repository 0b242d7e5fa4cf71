// Package token issues and verifies the short-lived confirmation tokens that
// gate destructive operations (participant deletion, product deletion, ledger
// reset). A token is obtained by authenticating with the admin password and
// must be presented again with the destructive call itself.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing confirmation token")
)

// ScopeAdmin marks a token as authorizing destructive ledger operations.
const ScopeAdmin = "admin"

// Claims is the confirmation token payload.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Generate creates a signed confirmation token valid for ttl.
func Generate(secret []byte, ttl time.Duration) (string, error) {
	claims := &Claims{
		Scope: ScopeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "campbank",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Validate parses a confirmation token and checks signature, expiry and scope.
func Validate(secret []byte, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Scope != ScopeAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
