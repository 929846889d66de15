package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zhenyuanliu98-svg/Vinobook/internal/models"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, email, name string) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users  UserStore
	tokens *TokenManager
}

func NewHandler(users UserStore, tokens *TokenManager) *Handler {
	return &Handler{users: users, tokens: tokens}
}

// DemoLogin provisions the user for the given email on first call and
// returns a bearer token. No password is involved.
func (h *Handler) DemoLogin(w http.ResponseWriter, r *http.Request) {
	var req models.DemoLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		http.Error(w, `{"error":"email is required"}`, http.StatusBadRequest)
		return
	}

	name := req.Email
	if at := strings.Index(req.Email, "@"); at > 0 {
		name = req.Email[:at]
	}

	user, err := h.users.GetOrCreateUser(r.Context(), req.Email, name)
	if err != nil {
		slog.Error("demo-login user lookup failed", "email", req.Email, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		slog.Error("token issue failed", "user_id", user.ID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}
