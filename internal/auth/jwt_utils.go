package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers malformed, expired and badly signed tokens alike.
var ErrInvalidToken = errors.New("invalid token")

// Claims defines what is inside the token (the "ID Card")
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// UserID is the account the token was issued to.
func (c *Claims) UserID() string { return c.Subject }

// TokenCodec signs and verifies HS256 session tokens.
type TokenCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenCodec builds a codec with a fixed validity window.
func NewTokenCodec(key []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{key: key, ttl: ttl, now: time.Now}
}

// Sign creates a signed JWT for the given account and session.
func (tc *TokenCodec) Sign(userID, username, role, sessionID string) (string, time.Time, error) {
	now := tc.now()
	exp := now.Add(tc.ttl)

	claims := &Claims{
		Username:  username,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.key)
	return signed, exp, err
}

// Parse checks if a token is fake or expired
func (tc *TokenCodec) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tc.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tc.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
