package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned for missing, malformed, expired or forged tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier resolves a bearer token into the owning user's id.
type Verifier interface {
	Verify(token string) (string, error)
}

// JWTVerifier validates HS256 tokens and returns the "sub" claim.
type JWTVerifier struct {
	secret []byte
	issuer string
}

var _ Verifier = (*JWTVerifier)(nil)

// NewJWTVerifier requires a non-empty secret. issuer is checked only when set.
func NewJWTVerifier(secret, issuer string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}, nil
}

func (v *JWTVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// Issue signs a token for subject. Used by tooling and tests.
func (v *JWTVerifier) Issue(subject string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
