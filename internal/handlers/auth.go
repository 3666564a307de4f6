// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"stitchtales/internal/auth"
	"stitchtales/internal/blog"
	"stitchtales/internal/middleware"
	"stitchtales/internal/models"
	"stitchtales/internal/session"
)

// Auth groups registration, login and two-factor handlers.
type Auth struct {
	accounts *blog.Accounts
	sessions *session.Store
	tokens   *auth.Tokens
}

// NewAuth creates a new Auth handler group.
func NewAuth(accounts *blog.Accounts, sessions *session.Store, tokens *auth.Tokens) *Auth {
	return &Auth{accounts: accounts, sessions: sessions, tokens: tokens}
}

type loginRequest struct {
	Login    string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type loginResponse struct {
	User              *models.User `json:"user"`
	TwoFactorRequired bool         `json:"two_factor_required"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register handles POST /api/auth/register.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in blog.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := a.accounts.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login handles POST /api/auth/login and starts a cookie session. Users
// with 2FA enabled get a partial session that POST /api/auth/2fa/verify
// completes.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := a.accounts.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		TwoFADone: !u.TOTPEnabled,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.Info("user logged in", "user_id", u.ID, "two_factor_pending", u.TOTPEnabled)
	writeJSON(w, http.StatusOK, loginResponse{User: u, TwoFactorRequired: u.TOTPEnabled})
}

type codeRequest struct {
	Code string `json:"code"`
}

// Verify2FA handles POST /api/auth/2fa/verify, completing a partial session.
func (a *Auth) Verify2FA(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req codeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := a.accounts.User(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := a.accounts.VerifyTOTP(u, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	promoted := *sess
	promoted.TwoFADone = true
	if err := a.sessions.Rotate(r.Context(), w, r, &promoted); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{User: u})
}

// Logout handles POST /api/auth/logout.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Token handles POST /api/auth/token and issues a bearer token. Users with
// 2FA enabled must include a current code.
func (a *Auth) Token(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := a.accounts.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if u.TOTPEnabled {
		if err := a.accounts.VerifyTOTP(u, req.Code); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	token, exp, err := a.tokens.Issue(u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp})
}

// Setup2FA handles POST /api/auth/2fa/setup and returns a fresh secret
// with its QR code.
func (a *Auth) Setup2FA(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, a.accounts)
	if u == nil {
		return
	}
	enr, err := a.accounts.BeginTOTP(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enr)
}

// Enable2FA handles POST /api/auth/2fa/enable.
func (a *Auth) Enable2FA(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, a.accounts)
	if u == nil {
		return
	}
	var req codeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.accounts.EnableTOTP(r.Context(), u, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"two_factor_enabled": true})
}
