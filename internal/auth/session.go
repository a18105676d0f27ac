package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"expenso/internal/log"
	"expenso/internal/storage"
)

// CookieName is the session cookie.
const CookieName = "expenso_session"

// Store is the persistence the session manager needs.
// *storage.SQLiteRepository implements it.
type Store interface {
	GetUserByUsername(ctx context.Context, username string) (storage.User, error)
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	SessionUser(ctx context.Context, token string) (storage.User, time.Time, error)
	ExtendSession(ctx context.Context, token string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
}

// Sessions issues and resolves server-side sessions. Sessions roll: one
// used in the second half of its lifetime is extended by a full TTL.
type Sessions struct {
	store  Store
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessions(store Store, ttl time.Duration, secureCookies bool) *Sessions {
	return &Sessions{store: store, ttl: ttl, secure: secureCookies, now: time.Now}
}

// Login checks the credentials and, on success, sets a fresh session cookie.
func (s *Sessions) Login(ctx context.Context, w http.ResponseWriter, username, password string) (Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrUserNotFound) {
		CheckPassword(password, unknownUserHash())
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		return Identity{}, ErrInvalidCredentials
	}

	token, err := GenerateSessionToken()
	if err != nil {
		return Identity{}, err
	}
	if err := s.store.CreateSession(ctx, token, user.ID, s.now().Add(s.ttl)); err != nil {
		return Identity{}, fmt.Errorf("create session: %w", err)
	}
	s.setCookie(w, token)

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return Identity{UserID: user.ID, Username: user.Username}, nil
}

// Logout deletes the session behind the request cookie, if any, and clears
// the cookie.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if err := s.store.DeleteSession(r.Context(), c.Value); err != nil {
			slog.ErrorContext(r.Context(), "Failed to delete session", "error", err)
		}
	}
	s.clearCookie(w)
}

// Resolve returns the identity of the request's session cookie.
func (s *Sessions) Resolve(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Identity{}, false
	}

	user, expiresAt, err := s.store.SessionUser(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, storage.ErrSessionNotFound) {
			slog.ErrorContext(r.Context(), "Failed to resolve session", "error", err)
		}
		s.clearCookie(w)
		return Identity{}, false
	}

	now := s.now()
	if expiresAt.Sub(now) < s.ttl/2 {
		if err := s.store.ExtendSession(r.Context(), c.Value, now.Add(s.ttl)); err == nil {
			s.setCookie(w, c.Value)
		}
	}
	return Identity{UserID: user.ID, Username: user.Username}, true
}

// Middleware puts the session identity in the request context. Anonymous
// page requests are redirected to /login; anonymous API requests get 401.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.Resolve(w, r)
		if !ok {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := WithIdentity(r.Context(), id)
		ctx = log.NewContext(ctx, log.FromContext(ctx).WithUser(id.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Sessions) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Sessions) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
