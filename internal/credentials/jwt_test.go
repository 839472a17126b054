package credentials

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	return signToken(t, jwt.RegisteredClaims{
		Subject:   "a@b.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
}

func TestDecode(t *testing.T) {
	t.Run("reads exp claim", func(t *testing.T) {
		exp := time.Unix(1900000000, 0)
		claims, err := Decode(tokenExpiringAt(t, exp))
		require.NoError(t, err)
		assert.Equal(t, exp.Unix(), claims.Expiry().Unix())
		assert.Equal(t, "a@b.com", claims.Subject)
	})

	t.Run("does not verify the signature", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("some-other-secret"))
		require.NoError(t, err)

		_, err = Decode(token)
		assert.NoError(t, err)
	})

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

	malformed := map[string]string{
		"empty":            "",
		"not a token":      "not-a-token",
		"two parts":        header + ".e30",
		"bad payload":      header + ".!!!.sig",
		"payload not json": header + "." + base64.RawURLEncoding.EncodeToString([]byte("hello")) + ".sig",
		"non numeric exp":  header + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"exp":"soon"}`)) + ".sig",
		"missing exp":      signToken(t, jwt.MapClaims{"sub": "a@b.com"}),
	}

	for name, token := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestClaims_IsExpired(t *testing.T) {
	exp := time.Unix(1700000000, 0)
	claims, err := Decode(tokenExpiringAt(t, exp))
	require.NoError(t, err)

	t.Run("past exp", func(t *testing.T) {
		for _, d := range []time.Duration{0, time.Second, 10 * time.Second, 24 * time.Hour} {
			assert.True(t, claims.IsExpired(exp.Add(d)), "now = exp + %s", d)
		}
	})

	t.Run("before exp", func(t *testing.T) {
		for _, d := range []time.Duration{time.Second, time.Minute, 24 * time.Hour} {
			assert.False(t, claims.IsExpired(exp.Add(-d)), "now = exp - %s", d)
		}
	})

	t.Run("missing exp counts as expired", func(t *testing.T) {
		assert.True(t, (&Claims{}).IsExpired(time.Now()))
	})
}

func TestValidate(t *testing.T) {
	now := time.Now()

	t.Run("valid", func(t *testing.T) {
		claims, err := Validate(tokenExpiringAt(t, now.Add(time.Hour)), now)
		require.NoError(t, err)
		assert.NotNil(t, claims)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := Validate(tokenExpiringAt(t, now.Add(-10*time.Second)), now)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTokenExpired)
		assert.NotErrorIs(t, err, ErrMalformedToken)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Validate("garbage", now)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedToken)
	})
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("token-a")
	b := Fingerprint("token-b")

	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Fingerprint("token-a"))
	assert.Empty(t, Fingerprint(""))
}
