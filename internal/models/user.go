package models

import "time"

// User is an account row, created on first login for a given email.
// No API ever updates or deletes a user.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DemoLoginRequest is the JSON body for POST /api/auth/demo-login.
type DemoLoginRequest struct {
	Email string `json:"email"`
}

// TokenResponse is returned by successful logins.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}
