package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier("", "")
	assert.Error(t, err)
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := NewJWTVerifier("s3cret", "printdesk")
	require.NoError(t, err)

	tok, err := v.Issue("user-42", time.Hour, time.Now())
	require.NoError(t, err)

	sub, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, _ := NewJWTVerifier("s3cret", "printdesk")
	other, _ := NewJWTVerifier("other", "printdesk")
	wrongIssuer, _ := NewJWTVerifier("s3cret", "someone-else")

	expired, _ := v.Issue("user-42", time.Minute, time.Now().Add(-time.Hour))
	forged, _ := other.Issue("user-42", time.Hour, time.Now())
	foreign, _ := wrongIssuer.Issue("user-42", time.Hour, time.Now())
	noSub, _ := v.Issue("", time.Hour, time.Now())
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u", Issuer: "printdesk"}).SignedString([]byte("s3cret"))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"expired":      expired,
		"forged":       forged,
		"wrong issuer": foreign,
		"no subject":   noSub,
		"no expiry":    noExp,
		"alg none":     none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tok)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}
