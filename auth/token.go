// Package auth issues and verifies the signed session tokens that prove a
// caller's identity. Tokens are stateless: nothing is persisted server-side,
// and a token cannot be revoked before it expires.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmo1994/SurnaturToDo/apperr"
	"github.com/mmo1994/SurnaturToDo/models"
)

// DefaultTTL is how long a session token stays valid.
const DefaultTTL = 24 * time.Hour

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer. A non-positive ttl falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token encoding the user id with an expiry.
func (i *Issuer) Issue(userID int) (string, error) {
	now := time.Now()
	claims := &models.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "signing token", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the embedded user id.
// Every failure mode is reported as Unauthorized.
func (i *Issuer) Verify(tokenString string) (int, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, apperr.Wrap(apperr.Unauthorized, "invalid token", err)
	}
	if !token.Valid || claims.UserID == 0 {
		return 0, apperr.New(apperr.Unauthorized, "invalid token")
	}
	return claims.UserID, nil
}
