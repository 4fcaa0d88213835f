// ABOUTME: Tests for the feed CRUD handlers
// ABOUTME: Covers create/list/delete flows, CSRF rejection, and form validation

package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/2389/feedlog/internal/store"
)

// loginSession creates a user, a session bound to it, and an issued CSRF token.
func loginSession(t *testing.T, h *Handler, st store.Store, username string) (*store.User, *store.Session, string) {
	t.Helper()

	user := createTestUser(t, st, username, "password123")
	session := createTestSession(t, st, user.ID)
	token, err := h.issueCSRFToken(context.Background(), session)
	if err != nil {
		t.Fatalf("issueCSRFToken() error = %v", err)
	}
	return user, session, token
}

func TestFeedCreate_EndToEnd(t *testing.T) {
	h, st, mux := setupHandler(t)
	user, session, token := loginSession(t, h, st, "alice")

	req := postForm("/feed", session.ID, url.Values{
		"csrf_token": {token},
		"ounces":     {"4.0"},
		"date":       {"2024-03-10"},
		"time":       {"14:30"},
		"timezone":   {"UTC"},
	})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect location = %q, want /", loc)
	}

	feeds, err := st.ListFeeds(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListFeeds() error = %v", err)
	}
	if len(feeds) != 1 {
		t.Fatalf("len(feeds) = %d, want 1", len(feeds))
	}
	if feeds[0].VolumeUL != 118294 { // 4.0 oz
		t.Errorf("VolumeUL = %d, want 118294", feeds[0].VolumeUL)
	}
	want := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	if !feeds[0].FedAt.Equal(want) {
		t.Errorf("FedAt = %v, want %v", feeds[0].FedAt, want)
	}

	// Listing page shows the feed at 2 decimal places
	listReq := httptest.NewRequest("GET", "/", nil)
	listReq.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.ID})
	listRec := httptest.NewRecorder()
	mux.ServeHTTP(listRec, listReq)

	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", listRec.Code, http.StatusOK)
	}
	if !strings.Contains(listRec.Body.String(), "4.00") {
		t.Error("home page does not show the logged volume")
	}
}

func TestFeedCreate_TimezoneConversion(t *testing.T) {
	h, st, mux := setupHandler(t)
	user, session, token := loginSession(t, h, st, "alice")

	// 09:00 in New York (EDT, UTC-4) is 13:00 UTC
	req := postForm("/feed", session.ID, url.Values{
		"csrf_token": {token},
		"ounces":     {"3.25"},
		"date":       {"2024-07-01"},
		"time":       {"09:00"},
		"timezone":   {"America/New_York"},
	})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	feeds, err := st.ListFeeds(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListFeeds() error = %v", err)
	}
	want := time.Date(2024, 7, 1, 13, 0, 0, 0, time.UTC)
	if !feeds[0].FedAt.Equal(want) {
		t.Errorf("FedAt = %v, want %v", feeds[0].FedAt, want)
	}
}

func TestFeedCreate_CrossSessionTokenRejected(t *testing.T) {
	h, st, mux := setupHandler(t)
	user, session, _ := loginSession(t, h, st, "alice")

	// Token from a different session
	other := createTestSession(t, st, "")
	otherToken, err := h.issueCSRFToken(context.Background(), other)
	if err != nil {
		t.Fatalf("issueCSRFToken() error = %v", err)
	}

	req := postForm("/feed", session.ID, url.Values{
		"csrf_token": {otherToken},
		"ounces":     {"4.0"},
		"date":       {"2024-03-10"},
		"time":       {"14:30"},
		"timezone":   {"UTC"},
	})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// No row created
	feeds, err := st.ListFeeds(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListFeeds() error = %v", err)
	}
	if len(feeds) != 0 {
		t.Errorf("len(feeds) = %d, want 0 after rejected request", len(feeds))
	}
}

func TestFeedCreate_ValidationErrors(t *testing.T) {
	h, st, mux := setupHandler(t)
	user, session, token := loginSession(t, h, st, "alice")

	valid := url.Values{
		"csrf_token": {token},
		"ounces":     {"4.0"},
		"date":       {"2024-03-10"},
		"time":       {"14:30"},
		"timezone":   {"UTC"},
	}

	tests := []struct {
		name     string
		field    string
		value    string
		wantText string
	}{
		{name: "ounces not a number", field: "ounces", value: "abc", wantText: "ounces"},
		{name: "ounces zero", field: "ounces", value: "0", wantText: "at most 10"},
		{name: "ounces too large", field: "ounces", value: "11", wantText: "at most 10"},
		{name: "bad date", field: "date", value: "03/10/2024", wantText: "YYYY-MM-DD"},
		{name: "bad time", field: "time", value: "2:30pm", wantText: "HH:MM"},
		{name: "bad timezone", field: "timezone", value: "Mars/Olympus", wantText: "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			for k, v := range valid {
				form[k] = v
			}
			form.Set(tt.field, tt.value)

			req := postForm("/feed", session.ID, form)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			// Form re-renders with an error, nothing is stored
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if !strings.Contains(rec.Body.String(), tt.wantText) {
				t.Errorf("response does not mention %q", tt.wantText)
			}

			feeds, err := st.ListFeeds(context.Background(), user.ID)
			if err != nil {
				t.Fatalf("ListFeeds() error = %v", err)
			}
			if len(feeds) != 0 {
				t.Errorf("len(feeds) = %d, want 0", len(feeds))
			}
		})
	}
}

func TestFeedDelete(t *testing.T) {
	h, st, mux := setupHandler(t)
	user, session, token := loginSession(t, h, st, "alice")

	feed := &store.Feed{
		ID:        "feed-1",
		UserID:    user.ID,
		VolumeUL:  88721,
		FedAt:     time.Now().UTC(),
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateFeed(context.Background(), feed); err != nil {
		t.Fatalf("CreateFeed() error = %v", err)
	}

	req := postForm("/feed/feed-1/delete", session.ID, url.Values{"csrf_token": {token}})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	feeds, err := st.ListFeeds(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListFeeds() error = %v", err)
	}
	if len(feeds) != 0 {
		t.Errorf("len(feeds) = %d, want 0 after delete", len(feeds))
	}
}

func TestFeedDelete_NotFound(t *testing.T) {
	h, st, mux := setupHandler(t)
	user, session, token := loginSession(t, h, st, "alice")

	// One existing feed that must survive
	feed := &store.Feed{
		ID:        "feed-1",
		UserID:    user.ID,
		VolumeUL:  88721,
		FedAt:     time.Now().UTC(),
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateFeed(context.Background(), feed); err != nil {
		t.Fatalf("CreateFeed() error = %v", err)
	}

	req := postForm("/feed/no-such-feed/delete", session.ID, url.Values{"csrf_token": {token}})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	feeds, err := st.ListFeeds(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListFeeds() error = %v", err)
	}
	if len(feeds) != 1 {
		t.Errorf("existing feed affected by failed delete: len = %d", len(feeds))
	}
}

func TestFeedDelete_OtherUsersFeed(t *testing.T) {
	h, st, mux := setupHandler(t)
	_, session, token := loginSession(t, h, st, "alice")
	bob := createTestUser(t, st, "bob", "password123")

	feed := &store.Feed{
		ID:        "bobs-feed",
		UserID:    bob.ID,
		VolumeUL:  88721,
		FedAt:     time.Now().UTC(),
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateFeed(context.Background(), feed); err != nil {
		t.Fatalf("CreateFeed() error = %v", err)
	}

	req := postForm("/feed/bobs-feed/delete", session.ID, url.Values{"csrf_token": {token}})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	// Bob's feed is untouched
	feeds, err := st.ListFeeds(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("ListFeeds() error = %v", err)
	}
	if len(feeds) != 1 {
		t.Error("another user's feed was deleted")
	}
}

func TestHome_NoteRenderedAsMarkdown(t *testing.T) {
	h, st, mux := setupHandler(t)
	user, session, _ := loginSession(t, h, st, "alice")

	feed := &store.Feed{
		ID:        "feed-1",
		UserID:    user.ID,
		VolumeUL:  88721,
		FedAt:     time.Now().UTC(),
		Note:      "fussy but **finished** the bottle",
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateFeed(context.Background(), feed); err != nil {
		t.Fatalf("CreateFeed() error = %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.ID})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "<strong>finished</strong>") {
		t.Error("note was not rendered as markdown")
	}
}

func TestRegister_Flow(t *testing.T) {
	h, st, mux := setupHandler(t)
	anon := createTestSession(t, st, "")
	token, err := h.issueCSRFToken(context.Background(), anon)
	if err != nil {
		t.Fatalf("issueCSRFToken() error = %v", err)
	}

	req := postForm("/register", anon.ID, url.Values{
		"csrf_token": {token},
		"username":   {"carol"},
		"password":   {"password123"},
	})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	user, err := st.GetUserByUsername(context.Background(), "carol")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.PasswordHash == "" || user.PasswordHash == "password123" {
		t.Error("password not hashed")
	}
}

func TestRegister_Rejections(t *testing.T) {
	h, st, mux := setupHandler(t)
	createTestUser(t, st, "taken", "password123")

	tests := []struct {
		name     string
		username string
		password string
		wantText string
	}{
		{name: "short password", username: "carol", password: "short", wantText: "at least 8 characters"},
		{name: "bad username", username: "9lives", password: "password123", wantText: "start with a letter"},
		{name: "duplicate username", username: "taken", password: "password123", wantText: "already taken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anon := createTestSession(t, st, "")
			token, err := h.issueCSRFToken(context.Background(), anon)
			if err != nil {
				t.Fatalf("issueCSRFToken() error = %v", err)
			}

			req := postForm("/register", anon.ID, url.Values{
				"csrf_token": {token},
				"username":   {tt.username},
				"password":   {tt.password},
			})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if !strings.Contains(rec.Body.String(), tt.wantText) {
				t.Errorf("response does not mention %q", tt.wantText)
			}
		})
	}
}

func TestRegister_ClosedAllowsBootstrap(t *testing.T) {
	st, err := store.NewSQLiteStore(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	h := New(st, Config{Registration: "closed"})
	t.Cleanup(h.Close)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	anon := createTestSession(t, st, "")
	token, err := h.issueCSRFToken(context.Background(), anon)
	if err != nil {
		t.Fatalf("issueCSRFToken() error = %v", err)
	}

	// First account is allowed even when registration is closed
	req := postForm("/register", anon.ID, url.Values{
		"csrf_token": {token},
		"username":   {"first"},
		"password":   {"password123"},
	})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("bootstrap register status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	// Second account is rejected
	anon2 := createTestSession(t, st, "")
	token2, err := h.issueCSRFToken(context.Background(), anon2)
	if err != nil {
		t.Fatalf("issueCSRFToken() error = %v", err)
	}
	req2 := postForm("/register", anon2.ID, url.Values{
		"csrf_token": {token2},
		"username":   {"second"},
		"password":   {"password123"},
	})
	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusForbidden {
		t.Errorf("second register status = %d, want %d", rec2.Code, http.StatusForbidden)
	}
}
