// ABOUTME: HTTP handlers for feed history, entry, and account pages
// ABOUTME: Mutating handlers validate the session CSRF token before touching storage

package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/feedlog/internal/store"
	"github.com/2389/feedlog/internal/units"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// handleHome renders the feed history for the signed-in user
func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	session := getSessionFromContext(r)

	csrfToken, err := h.issueCSRFToken(r.Context(), session)
	if err != nil {
		h.logger.Error("failed to issue CSRF token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	feeds, err := h.store.ListFeeds(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list feeds", "error", err, "user_id", user.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.renderHome(w, user, feeds, csrfToken)
}

// handleFeedForm renders the feed entry form
func (h *Handler) handleFeedForm(w http.ResponseWriter, r *http.Request) {
	session := getSessionFromContext(r)

	csrfToken, err := h.issueCSRFToken(r.Context(), session)
	if err != nil {
		h.logger.Error("failed to issue CSRF token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	h.renderFeedForm(w, feedFormData{
		Title:     "Log a Feed",
		CSRFToken: csrfToken,
		Date:      now.Format(dateLayout),
		Time:      now.Format(timeLayout),
		Timezone:  "UTC",
	})
}

// feedInput holds a validated feed form submission.
type feedInput struct {
	volumeUL int64
	fedAt    time.Time
	note     string
}

// parseFeedForm validates the entry form fields.
// Returns the parsed input or a user-facing error message.
func parseFeedForm(r *http.Request) (*feedInput, string) {
	volumeUL, err := units.ParseOunces(r.FormValue("ounces"))
	if err != nil {
		return nil, "Enter the volume in ounces, like 3.25"
	}
	if err := units.CheckFeedVolume(volumeUL); err != nil {
		return nil, "Volume must be more than 0 and at most 10 ounces"
	}

	day, err := time.Parse(dateLayout, r.FormValue("date"))
	if err != nil {
		return nil, "Enter the date as YYYY-MM-DD"
	}

	clock, err := time.Parse(timeLayout, r.FormValue("time"))
	if err != nil {
		return nil, "Enter the time as HH:MM"
	}

	tz := r.FormValue("timezone")
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Sprintf("Unknown timezone %q", tz)
	}

	fedAt := time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, loc).UTC()

	return &feedInput{
		volumeUL: volumeUL,
		fedAt:    fedAt,
		note:     r.FormValue("note"),
	}, ""
}

// handleFeedCreate processes the feed entry form
func (h *Handler) handleFeedCreate(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	session := getSessionFromContext(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	if !h.validateCSRF(r, session.ID) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	input, errMsg := parseFeedForm(r)
	if errMsg != "" {
		csrfToken, err := h.issueCSRFToken(r.Context(), session)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		h.renderFeedForm(w, feedFormData{
			Title:     "Log a Feed",
			Error:     errMsg,
			CSRFToken: csrfToken,
			Ounces:    r.FormValue("ounces"),
			Date:      r.FormValue("date"),
			Time:      r.FormValue("time"),
			Timezone:  r.FormValue("timezone"),
			Note:      r.FormValue("note"),
		})
		return
	}

	feed := &store.Feed{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		VolumeUL:  input.volumeUL,
		FedAt:     input.fedAt,
		Note:      input.note,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateFeed(r.Context(), feed); err != nil {
		h.logger.Error("failed to create feed", "error", err, "user_id", user.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("feed created", "feed_id", feed.ID, "user_id", user.ID, "volume_ul", feed.VolumeUL)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleFeedDelete deletes a feed owned by the signed-in user
func (h *Handler) handleFeedDelete(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	session := getSessionFromContext(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	if !h.validateCSRF(r, session.ID) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	feedID := r.PathValue("id")
	if feedID == "" {
		http.Error(w, "Feed ID required", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteFeed(r.Context(), feedID, user.ID); err != nil {
		if errors.Is(err, store.ErrFeedNotFound) {
			http.Error(w, "Feed not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete feed", "error", err, "feed_id", feedID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("feed deleted", "feed_id", feedID, "user_id", user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLoginPage renders the login page
func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	session, err := h.resolveOrCreateSession(w, r)
	if err != nil {
		h.logger.Error("failed to resolve session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// If already logged in, redirect home
	if session.UserID != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	csrfToken, err := h.issueCSRFToken(r.Context(), session)
	if err != nil {
		h.logger.Error("failed to issue CSRF token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.renderLoginPage(w, "", csrfToken)
}

// handleLogin processes login form submission
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	session, err := h.resolveOrCreateSession(w, r)
	if err != nil {
		h.logger.Error("failed to resolve session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, session, "Invalid form data")
		return
	}

	if !h.validateCSRF(r, session.ID) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.renderLoginError(w, r, session, "Username and password required")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		h.logger.Error("failed to get user", "error", err)
		h.renderLoginError(w, r, session, "An error occurred")
		return
	}

	if !checkPassword(user, password) {
		h.renderLoginError(w, r, session, "Invalid username or password")
		return
	}

	if err := h.createSession(w, r, user.ID); err != nil {
		h.logger.Error("failed to create session", "error", err)
		h.renderLoginError(w, r, session, "An error occurred")
		return
	}

	h.logger.Info("login successful", "username", username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderLoginError re-renders the login page with an error message
func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, session *store.Session, msg string) {
	csrfToken, err := h.issueCSRFToken(r.Context(), session)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.renderLoginPage(w, msg, csrfToken)
}

// handleRegisterPage renders the account creation page
func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	session, err := h.resolveOrCreateSession(w, r)
	if err != nil {
		h.logger.Error("failed to resolve session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if session.UserID != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if !h.registrationAllowed(r) {
		http.Error(w, "Registration is closed", http.StatusForbidden)
		return
	}

	csrfToken, err := h.issueCSRFToken(r.Context(), session)
	if err != nil {
		h.logger.Error("failed to issue CSRF token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.renderRegisterPage(w, "", csrfToken)
}

// registrationAllowed reports whether a new account may be created.
// A closed instance still allows the very first account so the app can be
// bootstrapped from the browser.
func (h *Handler) registrationAllowed(r *http.Request) bool {
	if h.config.Registration != "closed" {
		return true
	}
	count, err := h.store.CountUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to count users", "error", err)
		return false
	}
	return count == 0
}

// handleRegister processes the account creation form
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	session, err := h.resolveOrCreateSession(w, r)
	if err != nil {
		h.logger.Error("failed to resolve session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if !h.registrationAllowed(r) {
		http.Error(w, "Registration is closed", http.StatusForbidden)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderRegisterError(w, r, session, "Invalid form data")
		return
	}

	if !h.validateCSRF(r, session.ID) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.renderRegisterError(w, r, session, "Username and password required")
		return
	}

	if errMsg := validateUsername(username); errMsg != "" {
		h.renderRegisterError(w, r, session, errMsg)
		return
	}

	if len(password) < 8 {
		h.renderRegisterError(w, r, session, "Password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.renderRegisterError(w, r, session, "An error occurred")
		return
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			h.renderRegisterError(w, r, session, "Username already taken")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		h.renderRegisterError(w, r, session, "An error occurred")
		return
	}

	if err := h.createSession(w, r, user.ID); err != nil {
		h.logger.Error("failed to create session", "error", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.logger.Info("user registered", "username", username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderRegisterError re-renders the register page with an error message
func (h *Handler) renderRegisterError(w http.ResponseWriter, r *http.Request, session *store.Session, msg string) {
	csrfToken, err := h.issueCSRFToken(r.Context(), session)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.renderRegisterPage(w, msg, csrfToken)
}

// handleLogout deletes the session and clears the cookie
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := getSessionFromContext(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	if !h.validateCSRF(r, session.ID) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	_ = h.store.DeleteSession(r.Context(), session.ID)

	// Deletion cookie carries the same attributes as setSessionCookie so
	// browsers treat it as the same cookie
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
