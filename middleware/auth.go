package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

// Key type for context
type contextKey string

const principalKey = contextKey("principal")

const (
	sessionName = "elbeg_session"
	userIDKey   = "uid"
)

// Principal is the caller of the current request. User is nil for guests.
type Principal struct {
	User *models.User
}

func (p Principal) Authenticated() bool { return p.User != nil }

func (p Principal) IsAdmin() bool { return p.User != nil && p.User.IsAdmin }

// UserID returns the caller's id, or nil for guests.
func (p Principal) UserID() *uint {
	if p.User == nil {
		return nil
	}
	id := p.User.ID
	return &id
}

// PrincipalFrom returns the principal Authenticate attached to ctx.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey).(Principal)
	return p
}

// WithPrincipal is used by tests and by Authenticate.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Sessions keeps the signed-in user id in a signed cookie.
type Sessions struct {
	store sessions.Store
	users UserLoader
}

func NewSessions(key []byte, secure bool, users UserLoader) *Sessions {
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: cs, users: users}
}

// Login stores userID in the session cookie.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID uint) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// Logout expires the session cookie.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, sessionName)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Authenticate resolves the session cookie into a Principal. Requests without
// a valid session continue as guests.
func (s *Sessions) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Principal
		sess, err := s.store.Get(r, sessionName)
		if err != nil {
			slog.Debug("Ignoring unreadable session cookie", "error", err)
		} else if id, ok := sess.Values[userIDKey].(uint); ok {
			user, err := s.users.GetUser(r.Context(), id)
			if err != nil {
				slog.Debug("Session user not found", "user_id", id, "error", err)
			} else {
				p.User = user
			}
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireAuth rejects guests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFrom(r.Context()).Authenticated() {
			utils.WriteError(w, http.StatusUnauthorized, "Login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects guests with 401 and non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFrom(r.Context())
		if !p.Authenticated() {
			utils.WriteError(w, http.StatusUnauthorized, "Login required")
			return
		}
		if !p.IsAdmin() {
			utils.WriteError(w, http.StatusForbidden, "Forbidden: Admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
