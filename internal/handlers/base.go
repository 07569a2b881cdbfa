package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alextreichler/tienda/internal/forms"
	"github.com/alextreichler/tienda/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

const (
	adminSession  = "admin-session"
	publicSession = "tienda-session"
)

// Base carries what every page handler needs.
type Base struct {
	Store        *store.Store
	Templates    *TemplateCache
	SessionStore sessions.Store
}

// render adds the values every page uses (CSRF field, flashes, login state)
// and writes the page with status.
func (b *Base) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	session, _ := b.SessionStore.Get(r, publicSession)
	data["CsrfField"] = csrf.TemplateField(r)
	data["Flashes"] = GetFlash(session)
	data["IsStaff"] = b.isStaff(r)
	if _, ok := data["Values"]; !ok {
		data["Values"] = url.Values{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = forms.Errors{}
	}
	if err := session.Save(r, w); err != nil {
		slog.Warn("Failed to save session", "error", err)
	}

	if err := b.Templates.Render(w, status, name, data); err != nil {
		slog.Error("Failed to render page", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (b *Base) isStaff(r *http.Request) bool {
	session, _ := b.SessionStore.Get(r, adminSession)
	auth, ok := session.Values["authenticated"].(bool)
	return ok && auth
}

// redirect stores a flash for the next page and redirects with 303.
func (b *Base) redirect(w http.ResponseWriter, r *http.Request, to, kind, message string) {
	session, _ := b.SessionStore.Get(r, publicSession)
	if message != "" {
		session.AddFlash(FlashMessage{Type: kind, Message: message})
	}
	if err := session.Save(r, w); err != nil {
		slog.Warn("Failed to save session", "error", err)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (b *Base) notFound(w http.ResponseWriter, r *http.Request, what string) {
	b.render(w, r, http.StatusNotFound, "not_found.html", map[string]interface{}{
		"What": what,
	})
}

func (b *Base) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// lookupFailed renders the 404 page for a NotFoundError and a 500 otherwise.
func (b *Base) lookupFailed(w http.ResponseWriter, r *http.Request, err error) {
	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		b.notFound(w, r, capitalize(nf.Entity))
		return
	}
	b.serverError(w, r, err)
}

// idParam reads a positive integer path parameter; ok is false when the
// value cannot be an id, which callers treat as not found.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// parseForm reads a url-encoded or multipart body.
func parseForm(r *http.Request, maxMemory int64) error {
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// formMessage turns an error from a store workflow into the message shown on
// the form. It reports false for unexpected errors.
func formMessage(err error) (string, bool) {
	var stockErr *store.InsufficientStockError
	var nf *store.NotFoundError
	switch {
	case errors.As(err, &stockErr):
		return stockErr.Error(), true
	case errors.Is(err, store.ErrDuplicateReview):
		return "This user has already reviewed this product.", true
	case errors.As(err, &nf):
		return fmt.Sprintf("%s not found.", capitalize(nf.Entity)), true
	case errors.Is(err, store.ErrDuplicate):
		return capitalize(err.Error()) + ".", true
	}
	return "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
