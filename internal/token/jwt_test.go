package token_test

import (
	"testing"
	"time"

	"github.com/fathima-sithara/account-service/internal/token"
	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	mgr := token.NewManager("test-secret", 7*24*time.Hour)

	signed, err := mgr.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	userID, err := mgr.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, "user-123", userID)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	mgr := token.NewManager("test-secret", 7*24*time.Hour)

	signed, err := mgr.Issue("user-123")
	require.NoError(t, err)

	// flip one character in the payload
	b := []byte(signed)
	mid := len(b) / 2
	if b[mid] == 'a' {
		b[mid] = 'b'
	} else {
		b[mid] = 'a'
	}

	_, err = mgr.Verify(string(b))
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	mgr := token.NewManager("test-secret", -time.Minute)

	signed, err := mgr.Issue("user-123")
	require.NoError(t, err)

	_, err = mgr.Verify(signed)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	signed, err := token.NewManager("secret-a", time.Hour).Issue("user-123")
	require.NoError(t, err)

	_, err = token.NewManager("secret-b", time.Hour).Verify(signed)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	mgr := token.NewManager("test-secret", time.Hour)
	_, err := mgr.Verify("not-a-jwt")
	require.ErrorIs(t, err, token.ErrInvalidToken)
}
