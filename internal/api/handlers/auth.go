package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/niftyquant/internal/auth"
	"github.com/wonny/niftyquant/pkg/logger"
)

// Authenticator is the account service the auth handlers call
type Authenticator interface {
	Signup(ctx context.Context, input auth.SignupInput) (*auth.User, error)
	Login(ctx context.Context, input auth.LoginInput) (*auth.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*auth.User, error)
}

// AuthHandler handles signup / login / logout and guards protected routes
type AuthHandler struct {
	service Authenticator
	logger  *logger.Logger
	secure  bool // 세션 쿠키 Secure 플래그 (production)
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service Authenticator, log *logger.Logger, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  log,
		secure:  secureCookies,
	}
}

// SignupRequest request body
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse public user fields
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *auth.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Name: u.Name, Email: u.Email}
}

// Signup creates an account
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Signup(r.Context(), auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondFailure(w, h.logger, "signup", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Signup successful",
		"user":    toUserResponse(user),
	})
}

// Login issues a token (JSON body + HttpOnly cookie)
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		respondFailure(w, h.logger, "login", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Login successful",
		"user":       toUserResponse(res.User),
		"token":      res.Token,
		"expires_at": res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout revokes the presented token and clears the cookie
// 토큰이 없거나 이미 무효여도 200 (쿠키만 정리)
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			h.logger.WithError(err).Debug("Logout with unusable token")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Dashboard returns the authenticated user
// GET /api/dashboard
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required", KindUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Welcome to the protected dashboard",
		"user":    toUserResponse(user),
	})
}

// Require rejects requests without a valid token (401)
func (h *AuthHandler) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "authentication required", KindUnauthorized)
			return
		}

		user, err := h.service.Authenticate(r.Context(), token)
		if err != nil {
			respondFailure(w, h.logger, "authenticate", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}
