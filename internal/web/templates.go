// ABOUTME: Template rendering functions for the feedlog UI
// ABOUTME: Loads templates from embedded filesystem and renders them

package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/2389/feedlog/internal/store"
	"github.com/2389/feedlog/internal/units"
)

// markdown renders feed notes. Raw HTML in the source is escaped by the
// default renderer, so notes cannot inject markup.
var markdown = goldmark.New()

// Template data types
type loginData struct {
	Title     string
	Error     string
	CSRFToken string
}

type registerData struct {
	Title     string
	Error     string
	CSRFToken string
}

type feedItem struct {
	ID       string
	Ounces   string
	FedAt    string
	NoteHTML template.HTML
}

type homeData struct {
	Title     string
	Username  string
	Feeds     []feedItem
	CSRFToken string
}

type feedFormData struct {
	Title     string
	Error     string
	CSRFToken string
	Ounces    string
	Date      string
	Time      string
	Timezone  string
	Note      string
}

// renderNote converts a feed note from Markdown to HTML.
func renderNote(note string) template.HTML {
	if note == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(note), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(note))
	}
	return template.HTML(buf.String())
}

// renderLoginPage renders the login page
func (h *Handler) renderLoginPage(w http.ResponseWriter, errorMsg, csrfToken string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/login.html"))

	data := loginData{
		Title:     "Login",
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render login page", "error", err)
	}
}

// renderRegisterPage renders the account creation page
func (h *Handler) renderRegisterPage(w http.ResponseWriter, errorMsg, csrfToken string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/register.html"))

	data := registerData{
		Title:     "Create Account",
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render register page", "error", err)
	}
}

// renderHome renders the feed history page
func (h *Handler) renderHome(w http.ResponseWriter, user *store.User, feeds []*store.Feed, csrfToken string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/home.html"))

	items := make([]feedItem, len(feeds))
	for i, f := range feeds {
		items[i] = feedItem{
			ID:       f.ID,
			Ounces:   units.FormatOunces(f.VolumeUL),
			FedAt:    f.FedAt.Format("2006-01-02 15:04 MST"),
			NoteHTML: renderNote(f.Note),
		}
	}

	data := homeData{
		Title:     "Feeds",
		Username:  user.Username,
		Feeds:     items,
		CSRFToken: csrfToken,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render home page", "error", err)
	}
}

// renderFeedForm renders the feed entry form
func (h *Handler) renderFeedForm(w http.ResponseWriter, data feedFormData) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/feed_form.html"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render feed form", "error", err)
	}
}
