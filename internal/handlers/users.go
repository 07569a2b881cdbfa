package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/alextreichler/tienda/internal/forms"
	"github.com/alextreichler/tienda/internal/models"
	"github.com/alextreichler/tienda/internal/store"
)

type UserHandler struct {
	*Base
}

func userValues(u *models.User) url.Values {
	v := url.Values{}
	v.Set("nombre", u.Name)
	v.Set("email", u.Email)
	v.Set("telefono", u.Phone)
	v.Set("direccion", u.Address)
	v.Set("tipo_usuario", string(u.Role))
	if u.Active {
		v.Set("activo", "on")
	}
	return v
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.GetAllUsers(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "users.html", map[string]interface{}{"Users": users})
}

func (h *UserHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, user *models.User, values url.Values, errs forms.Errors) {
	h.render(w, r, status, "user_form.html", map[string]interface{}{
		"User":   user,
		"Values": values,
		"Errors": errs,
		"Roles":  models.Roles,
	})
}

func (h *UserHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, nil, url.Values{"activo": {"on"}, "tipo_usuario": {string(models.RoleCustomer)}}, nil)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	in, errs := forms.ParseUser(r.PostForm)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, nil, r.PostForm, errs)
		return
	}

	user := &models.User{}
	in.Apply(user)
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.renderForm(w, r, http.StatusUnprocessableEntity, nil, r.PostForm, forms.Errors{"email": "A user with this email already exists."})
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.redirect(w, r, "/usuarios/", "success", "User "+user.Name+" created.")
}

func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, user, userValues(user), nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	in, errs := forms.ParseUser(r.PostForm)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, user, r.PostForm, errs)
		return
	}

	in.Apply(user)
	if err := h.Store.UpdateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.renderForm(w, r, http.StatusUnprocessableEntity, user, r.PostForm, forms.Errors{"email": "A user with this email already exists."})
			return
		}
		h.lookupFailed(w, r, err)
		return
	}

	h.redirect(w, r, "/usuarios/", "success", "User "+user.Name+" updated.")
}

func (h *UserHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "confirm_delete.html", map[string]interface{}{
		"Kind":    "user",
		"Name":    user.Name,
		"Warning": "Their orders and reviews will be deleted too.",
		"Cancel":  "/usuarios/",
	})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteUser(r.Context(), user.ID); err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	h.redirect(w, r, "/usuarios/", "success", "User "+user.Name+" deleted.")
}

func (h *UserHandler) load(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := idParam(r, "id")
	if !ok {
		h.notFound(w, r, "User")
		return nil, false
	}
	user, err := h.Store.GetUserByID(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return nil, false
	}
	return user, true
}
