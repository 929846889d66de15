package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zhenyuanliu98-svg/Vinobook/internal/models"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	m := NewTokenManager([]byte("super-secret"), time.Hour)
	user := &models.User{ID: 42, Email: "somm@example.com"}

	tok, err := m.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "somm@example.com", claims.Email)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	m := NewTokenManager([]byte("secret"), -time.Minute)
	tok, err := m.Issue(&models.User{ID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongKey(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenManager([]byte("right-key"), time.Hour).
		Issue(&models.User{ID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	_, err = NewTokenManager([]byte("wrong-key"), time.Hour).Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	m := NewTokenManager([]byte("k"), time.Hour)
	for _, tok := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		_, err := m.Verify(tok)
		require.Error(t, err, "token %q should not verify", tok)
	}
}

func TestRandomKeysDiffer(t *testing.T) {
	t.Parallel()

	a, b := NewRandomKey(), NewRandomKey()
	require.Len(t, a, 32)
	require.NotEqual(t, a, b)
}
