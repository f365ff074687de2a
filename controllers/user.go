package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Gantuuu/Elbeg-sub001/middleware"
	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/store"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

// UserController handles sign-in and the current-user endpoint.
type UserController struct {
	Store          store.UserStore
	Sessions       *middleware.Sessions
	ProviderSecret []byte
	Debug          bool
}

// NewUserController creates a new UserController
func NewUserController(s store.UserStore, sessions *middleware.Sessions, providerSecret []byte, debug bool) *UserController {
	return &UserController{Store: s, Sessions: sessions, ProviderSecret: providerSecret, Debug: debug}
}

// Login handles POST /api/auth/login with email and password.
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, models.ValidationError("invalid input"), uc.Debug)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		writeError(w, err, uc.Debug)
		return
	}
	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	uc.startSession(w, r, user)
}

// ExchangeToken handles POST /api/auth/token: a signed token from the
// external auth provider is traded for a session cookie.
func (uc *UserController) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.ValidationError("invalid input"), uc.Debug)
		return
	}
	if len(uc.ProviderSecret) == 0 {
		utils.WriteError(w, http.StatusNotImplemented, "External sign-in is not configured")
		return
	}
	claims, err := utils.ParseProviderToken(uc.ProviderSecret, req.Token)
	if err != nil {
		slog.Info("Rejected provider token", "error", err)
		utils.WriteError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Store.UpsertExternalUser(ctx, claims.Subject, strings.ToLower(claims.Email), claims.Name, claims.EmailVerified)
	if err != nil {
		writeError(w, err, uc.Debug)
		return
	}
	uc.startSession(w, r, user)
}

func (uc *UserController) startSession(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := uc.Sessions.Login(w, r, user.ID); err != nil {
		writeError(w, err, uc.Debug)
		return
	}
	slog.Info("User signed in", "user_id", user.ID)
	utils.WriteJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := uc.Sessions.Logout(w, r); err != nil {
		writeError(w, err, uc.Debug)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user.
func (uc *UserController) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	utils.WriteJSON(w, http.StatusOK, p.User)
}
