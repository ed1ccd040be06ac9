package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := NewTokenIssuer("test-secret")
	token, err := ti.Issue("user-1", "sess-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := ti.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestTokenIssuer_Expired(t *testing.T) {
	ti := NewTokenIssuer("test-secret")
	token, err := ti.Issue("user-1", "sess-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = ti.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("correct").Issue("user-1", "sess-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = NewTokenIssuer("wrong").Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{SessionID: "s", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret").Verify(unsigned)
	assert.Error(t, err)
}

func TestTokenIssuer_GeneratedSecret(t *testing.T) {
	a, b := NewTokenIssuer(""), NewTokenIssuer("")
	token, err := a.Issue("u", "s", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = a.Verify(token)
	require.NoError(t, err)
	_, err = b.Verify(token)
	assert.Error(t, err)
}
