package credentials

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
)

var (
	// ErrMalformedToken is returned when a token cannot be decoded.
	ErrMalformedToken = errors.New("malformed token")

	// ErrTokenExpired is returned when a decoded token is past its exp claim.
	ErrTokenExpired = errors.New("token expired")
)

// Claims holds the parts of the token payload the client reads.
// The signature is never checked here; the backend does that on every request.
type Claims struct {
	jwt.RegisteredClaims
}

// Expiry returns the exp claim as a time.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IsExpired reports whether now is at or after the exp claim.
func (c *Claims) IsExpired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !now.Before(c.ExpiresAt.Time)
}

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode parses the payload of a three part token without verifying its signature.
// The payload must carry a numeric exp claim.
func Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}

	return claims, nil
}

// Validate decodes the token and checks it has not expired at now.
// It returns ErrMalformedToken or ErrTokenExpired; callers treat both as "not valid".
func Validate(token string, now time.Time) (*Claims, error) {
	claims, err := Decode(token)
	if err != nil {
		return nil, err
	}

	if claims.IsExpired(now) {
		return claims, fmt.Errorf("%w: expired at %s", ErrTokenExpired, claims.Expiry().UTC().Format(time.RFC3339))
	}

	return claims, nil
}

// Fingerprint identifies a token in logs without revealing it
// (Base58-encoded SHA256, truncated).
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	fp := base58.Encode(hash[:])
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return fp
}
