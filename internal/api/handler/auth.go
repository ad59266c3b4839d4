package handler

import (
	"errors"
	"net/http"

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/middleware"
)

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
}

// Register handles account creation.
// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	session, err := h.auth.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, SessionResponse{
		Token:    session.Token,
		UserID:   session.User.ID,
		Username: session.User.Username,
		Email:    session.User.Email,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles sign in.
// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, SessionResponse{
		Token:  session.Token,
		UserID: session.User.ID,
		Email:  session.User.Email,
	})
}

// ForgotPasswordResponse is returned by forgot-password. Token is only set
// when the handler exposes reset tokens.
type ForgotPasswordResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// ForgotPassword issues a password reset token.
// POST /auth/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	resp := ForgotPasswordResponse{Message: "If the account exists, a reset token has been issued"}
	token, err := h.auth.ForgotPassword(r.Context(), req.Email)
	switch {
	case err == nil:
		if h.exposeResetTokens {
			resp.Token = token
		}
	case errors.Is(err, ledger.ErrNotFound) && !h.exposeResetTokens:
		// Unknown and known emails look the same to the caller.
	default:
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, resp)
}

// ResetPasswordRequest represents the request body for a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword sets a new password from a reset token.
// POST /auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decode(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// Me returns the authenticated user.
// GET /users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}
