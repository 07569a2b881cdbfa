package handlers

import (
	"log/slog"
	"net/http"

	"github.com/alextreichler/tienda/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type AdminHandler struct {
	*Base
}

func (h *AdminHandler) LoginGet(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login.html", nil)
}

func (h *AdminHandler) LoginPost(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	staff, err := h.Store.GetStaffByUsername(r.Context(), username)
	if err != nil {
		slog.Error("Failed to look up staff account", "error", err)
		h.redirect(w, r, "/login", "error", "Internal Server Error")
		return
	}

	if staff == nil {
		h.redirect(w, r, "/login", "error", "Invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(password)); err != nil {
		h.redirect(w, r, "/login", "error", "Invalid username or password")
		return
	}

	session, _ := h.SessionStore.Get(r, adminSession)
	session.Values["authenticated"] = true
	session.Values["staff_id"] = staff.ID
	session.Options.Path = "/"
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	slog.Info("Login successful", "staff_id", staff.ID)
	h.redirect(w, r, "/", "success", "Welcome, "+staff.Username+"!")
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, adminSession)
	session.Values["authenticated"] = false
	session.Options.MaxAge = -1 // Expire immediately
	session.Save(r, w)
	h.redirect(w, r, "/login", "success", "Logged out successfully!")
}

// AuthMiddleware sends visitors without a staff session to the login page.
func (h *AdminHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.isStaff(r) {
			slog.Info("Not authenticated, redirecting to /login", "path", r.URL.Path)
			h.redirect(w, r, "/login", "error", "You must be logged in to access this page.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.GetDashboardStats(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "dashboard.html", map[string]interface{}{
		"Stats":    stats,
		"Statuses": models.OrderStatuses,
	})
}
