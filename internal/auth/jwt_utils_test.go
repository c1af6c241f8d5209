package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodec_RoundTrip(t *testing.T) {
	tc := NewTokenCodec([]byte("k"), 24*time.Hour)

	tok, exp, err := tc.Sign("u-1", "alice", "admin", "s-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp, time.Minute)

	claims, err := tc.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "s-1", claims.SessionID)
}

func TestTokenCodec_Expired(t *testing.T) {
	tc := NewTokenCodec([]byte("k"), time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	tc.now = func() time.Time { return issued }

	tok, _, err := tc.Sign("u-1", "alice", "admin", "s-1")
	require.NoError(t, err)

	tc.now = time.Now
	_, err = tc.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_WrongKeyOrGarbage(t *testing.T) {
	tok, _, err := NewTokenCodec([]byte("one"), time.Hour).Sign("u-1", "a", "cashier", "s")
	require.NoError(t, err)

	_, err = NewTokenCodec([]byte("two"), time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenCodec([]byte("one"), time.Hour).Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewTokenCodec([]byte("k"), time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword_HashAndCheck(t *testing.T) {
	h, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", h)
	assert.True(t, CheckPassword(h, "secret1"))
	assert.False(t, CheckPassword(h, "secret2"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "secret1"))
}
