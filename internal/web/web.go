// ABOUTME: Web UI package for the feedlog application
// ABOUTME: Provides session management, CSRF protection, and page routes

package web

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/feedlog/internal/store"
)

// Username validation regex: alphanumeric + underscores, 3-32 characters
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,31}$`)

// SessionCookieName is the name of the session cookie
const SessionCookieName = "feedlog_session"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const userContextKey contextKey = "feedlog_user"
const sessionContextKey contextKey = "feedlog_session"

// Config holds web UI configuration
type Config struct {
	// BaseURL is the external URL of the app, used for passkey origins
	BaseURL string
	// SecureCookies marks cookies Secure; enable behind HTTPS
	SecureCookies bool
	// Registration is "open" or "closed"
	Registration string
}

// Handler serves the feedlog web UI
type Handler struct {
	store            store.Store
	config           Config
	logger           *slog.Logger
	webauthn         *webauthn.WebAuthn
	webauthnSessions *webAuthnSessionStore
}

// New creates a new web Handler
func New(st store.Store, cfg Config) *Handler {
	h := &Handler{
		store:  st,
		config: cfg,
		logger: slog.Default().With("component", "web"),
	}

	// Initialize WebAuthn (errors are logged but don't prevent startup)
	if err := h.initWebAuthn(); err != nil {
		h.logger.Warn("failed to initialize WebAuthn, passkey login disabled", "error", err)
	}

	return h
}

// Close cleans up handler resources
func (h *Handler) Close() {
	if h.webauthnSessions != nil {
		h.webauthnSessions.Close()
	}
}

// RegisterRoutes registers all web routes on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("GET /login", h.handleLoginPage)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("GET /register", h.handleRegisterPage)
	mux.HandleFunc("POST /register", h.handleRegister)

	// Protected routes (auth required)
	mux.HandleFunc("GET /{$}", h.requireAuth(h.handleHome))
	mux.HandleFunc("GET /feed", h.requireAuth(h.handleFeedForm))
	mux.HandleFunc("POST /feed", h.requireAuth(h.handleFeedCreate))
	mux.HandleFunc("POST /feed/{id}/delete", h.requireAuth(h.handleFeedDelete))
	mux.HandleFunc("POST /logout", h.requireAuth(h.handleLogout))

	// WebAuthn/Passkey routes
	mux.HandleFunc("POST /webauthn/register/begin", h.requireAuth(h.handleWebAuthnRegisterBegin))
	mux.HandleFunc("POST /webauthn/register/finish", h.requireAuth(h.handleWebAuthnRegisterFinish))
	mux.HandleFunc("POST /webauthn/login/begin", h.handleWebAuthnLoginBegin)
	mux.HandleFunc("POST /webauthn/login/finish", h.handleWebAuthnLoginFinish)

	h.logger.Info("web routes registered")
}

// resolveOrCreateSession returns the session named by the request cookie,
// creating a fresh anonymous session (and setting the cookie) when the
// cookie is missing or names an unknown session.
func (h *Handler) resolveOrCreateSession(w http.ResponseWriter, r *http.Request) (*store.Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err == nil && cookie.Value != "" {
		session, err := h.store.GetSession(r.Context(), cookie.Value)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, store.ErrSessionNotFound) {
			return nil, err
		}
	}

	sessionID, err := generateSecureToken(32)
	if err != nil {
		return nil, err
	}

	session := &store.Session{
		ID:        sessionID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.CreateSession(r.Context(), session); err != nil {
		return nil, err
	}

	h.setSessionCookie(w, sessionID)
	return session, nil
}

// createSession creates a new session bound to a user and sets the cookie.
// The previous session row, if any, is deleted so login always rotates the
// session identifier.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request, userID string) error {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		_ = h.store.DeleteSession(r.Context(), cookie.Value)
	}

	sessionID, err := generateSecureToken(32)
	if err != nil {
		return err
	}

	session := &store.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.CreateSession(r.Context(), session); err != nil {
		return err
	}

	h.setSessionCookie(w, sessionID)
	return nil
}

// setSessionCookie sets the session cookie with the standard attributes.
func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// requireAuth wraps a handler to require an authenticated session
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := h.resolveOrCreateSession(w, r)
		if err != nil {
			h.logger.Error("failed to resolve session", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if session.UserID == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := h.store.GetUser(r.Context(), session.UserID)
		if err != nil {
			// Session points at a deleted user; treat as logged out
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, sessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// getUserFromContext retrieves the authenticated user from the request context
func getUserFromContext(r *http.Request) *store.User {
	user, _ := r.Context().Value(userContextKey).(*store.User)
	return user
}

// getSessionFromContext retrieves the session from the request context
func getSessionFromContext(r *http.Request) *store.Session {
	session, _ := r.Context().Value(sessionContextKey).(*store.Session)
	return session
}

// issueCSRFToken returns the session's synchronizer token, generating and
// persisting one if the session has none yet.
func (h *Handler) issueCSRFToken(ctx context.Context, session *store.Session) (string, error) {
	if session.CSRFToken != "" {
		return session.CSRFToken, nil
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return "", err
	}
	if err := h.store.IssueCSRFToken(ctx, session.ID, token); err != nil {
		return "", err
	}
	session.CSRFToken = token
	return token, nil
}

// validateCSRF checks the submitted form token against the token stored for
// the session, using a constant-time comparison. A session with no issued
// token always fails.
func (h *Handler) validateCSRF(r *http.Request, sessionID string) bool {
	stored, err := h.store.GetCSRFToken(r.Context(), sessionID)
	if err != nil || stored == "" {
		return false
	}

	submitted := r.FormValue("csrf_token")
	if submitted == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// checkPassword verifies a password against a user's bcrypt hash. A dummy
// comparison runs when the user is nil or has no password so response timing
// does not reveal which usernames exist.
func checkPassword(user *store.User, password string) bool {
	dummyHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

	if user == nil || user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validateUsername checks if username meets requirements
// Returns an error message or empty string if valid
func validateUsername(username string) string {
	if len(username) < 3 {
		return "Username must be at least 3 characters"
	}
	if len(username) > 32 {
		return "Username must be at most 32 characters"
	}
	if !usernameRegex.MatchString(username) {
		return "Username must start with a letter and contain only letters, numbers, and underscores"
	}
	return ""
}
