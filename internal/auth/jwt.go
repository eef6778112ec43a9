// Package auth issues and verifies the bearer tokens that gate every
// protected Byaboneka+ endpoint, and hashes passwords and refresh tokens
// at rest.
//
// Bearer-token parsing follows the familiar gin auth-middleware shape
// (read "Authorization" header, split "Bearer <token>", reject malformed
// or missing headers with a typed JSON error) — only the comparison step
// changes, from a single constant-time static-token compare to JWT
// signature verification, since Byaboneka+ needs per-user identity and
// role claims rather than
// one shared operator token.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// AccessTokenTTL and RefreshTokenTTL are the token lifetimes 
// calls for: a short-lived access token and a long-lived, rotatable
// refresh token.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims is the JWT payload issued for an access token.
type Claims struct {
	UserID string      `json:"uid"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret}
}

// IssueAccessToken signs a short-lived JWT carrying the user's id and role.
func (t *TokenIssuer) IssueAccessToken(userID string, role models.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to sign access token", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature and expiry and returns the claims.
func (t *TokenIssuer) ParseAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.New(apperr.KindUnauthenticated, "unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid or expired access token")
	}
	return claims, nil
}
