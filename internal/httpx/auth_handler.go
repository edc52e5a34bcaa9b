package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Brocoder07/ShopStream/internal/auth"
	"github.com/Brocoder07/ShopStream/internal/users"
)

type AuthHandler struct {
	Users users.Store
	JWT   *auth.JWTService
	Auth  *AuthMiddleware
}

type RegisterReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

func (h *AuthHandler) Register(r *chi.Mux) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Require)
		r.Get("/auth/me", h.me)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Require, h.Auth.RequireAdmin)
		r.Get("/admin/users", h.listUsers)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	u := users.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         users.RoleUser,
	}
	if err := h.Users.Create(r.Context(), &u); err != nil {
		writeError(w, err)
		return
	}

	token, expiresAt, err := h.JWT.GenerateToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResp{Token: token, ExpiresAt: expiresAt, Message: "Registration successful"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	u, err := h.Users.FindByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(req.Password, u.PasswordHash) {
		// same answer for unknown email and wrong password
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, expiresAt, err := h.JWT.GenerateToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResp{Token: token, ExpiresAt: expiresAt, Message: "Login successful"})
}

// listUsers never serializes password hashes.
func (h *AuthHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(list))
	for _, u := range list {
		out = append(out, map[string]any{
			"id":         u.ID,
			"username":   u.Username,
			"email":      u.Email,
			"role":       u.Role,
			"created_at": u.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	u, err := h.Users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"role":     u.Role,
	})
}
