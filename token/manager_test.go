package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-storefront/token"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/stretchr/testify/require"
)

const secretStr = "0123456789abcdef0123"

func newManager(t *testing.T, now func() time.Time) *token.Manager {
	t.Helper()
	signer, err := token.NewHMACSigner(secretStr)
	require.NoError(t, err)
	m, err := token.NewManager(signer, token.WithNowFunc(now), token.WithTokenExpiry(time.Hour))
	require.NoError(t, err)
	return m
}

func TestNewHMACSigner_ShortSecret(t *testing.T) {
	_, err := token.NewHMACSigner("short")
	require.Error(t, err)
}

func TestManager_IssueAndVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newManager(t, func() time.Time { return now })

	user := &users.User{Principal: users.Principal{ID: "42", Phone: "01712345678"}}
	raw, err := m.Issue(user)
	require.NoError(t, err)

	claims, err := m.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "42", claims.UserID().String())
	require.Equal(t, "01712345678", claims.Phone)
	require.Equal(t, token.DefaultIssuer, claims.Issuer)
	require.NotEmpty(t, claims.ID)

	t.Run("expired", func(t *testing.T) {
		later := newManager(t, func() time.Time { return now.Add(2 * time.Hour) })
		_, err := later.Verify(raw)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		signer, err := token.NewHMACSigner("another-secret-0123456")
		require.NoError(t, err)
		other, err := token.NewManager(signer, token.WithNowFunc(func() time.Time { return now }))
		require.NoError(t, err)
		_, err = other.Verify(raw)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "42", "iss": token.DefaultIssuer}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Verify(unsigned)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Verify("not-a-token")
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})
}

func TestManager_IssueRequiresUser(t *testing.T) {
	m := newManager(t, time.Now)
	_, err := m.Issue(nil)
	require.Error(t, err)
	_, err = m.Issue(&users.User{})
	require.Error(t, err)
}
