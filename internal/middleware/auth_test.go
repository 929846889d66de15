package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zhenyuanliu98-svg/Vinobook/internal/auth"
	"github.com/zhenyuanliu98-svg/Vinobook/internal/models"
)

func authedHandler(t *testing.T, tokens *auth.TokenManager) http.Handler {
	t.Helper()
	return RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, int64(7), UserID(r.Context()))
		require.Equal(t, "somm@example.com", Email(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRequireAuthValidToken(t *testing.T) {
	tokens := auth.NewTokenManager([]byte("key"), time.Hour)
	tok, err := tokens.Issue(&models.User{ID: 7, Email: "somm@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	authedHandler(t, tokens).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAuthRejections(t *testing.T) {
	tokens := auth.NewTokenManager([]byte("key"), time.Hour)
	expired, err := auth.NewTokenManager([]byte("key"), -time.Minute).
		Issue(&models.User{ID: 7, Email: "somm@example.com"})
	require.NoError(t, err)
	wrongKey, err := auth.NewTokenManager([]byte("other"), time.Hour).
		Issue(&models.User{ID: 7, Email: "somm@example.com"})
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without valid auth")
	})
	mw := RequireAuth(tokens)(next)

	cases := map[string]string{
		"missing header":   "",
		"no bearer prefix": "Token abc",
		"bare token":       "abc",
		"garbage token":    "Bearer not.a.jwt",
		"expired token":    "Bearer " + expired,
		"wrong key":        "Bearer " + wrongKey,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			mw.ServeHTTP(rr, req)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}
