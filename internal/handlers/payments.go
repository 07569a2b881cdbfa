package handlers

import (
	"net/http"
	"net/url"

	"github.com/alextreichler/tienda/internal/forms"
	"github.com/alextreichler/tienda/internal/models"
)

type PaymentHandler struct {
	*Base
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	methods, err := h.Store.GetAllPaymentMethods(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "payments.html", map[string]interface{}{"Methods": methods})
}

func (h *PaymentHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, method *models.PaymentMethod, values url.Values, errs forms.Errors) {
	h.render(w, r, status, "payment_form.html", map[string]interface{}{
		"Method": method,
		"Values": values,
		"Errors": errs,
		"Kinds":  models.PaymentKinds,
	})
}

func (h *PaymentHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, nil, url.Values{"activo": {"on"}}, nil)
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	in, errs := forms.ParsePaymentMethod(r.PostForm)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, nil, r.PostForm, errs)
		return
	}

	method := &models.PaymentMethod{}
	in.Apply(method)
	if err := h.Store.CreatePaymentMethod(r.Context(), method); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.redirect(w, r, "/pagos/", "success", "Payment method "+method.Name+" added.")
}

func (h *PaymentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	method, ok := h.load(w, r)
	if !ok {
		return
	}
	values := url.Values{"nombre": {method.Name}, "tipo": {string(method.Kind)}}
	if method.Active {
		values.Set("activo", "on")
	}
	h.renderForm(w, r, http.StatusOK, method, values, nil)
}

func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	method, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	in, errs := forms.ParsePaymentMethod(r.PostForm)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, method, r.PostForm, errs)
		return
	}

	in.Apply(method)
	if err := h.Store.UpdatePaymentMethod(r.Context(), method); err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	h.redirect(w, r, "/pagos/", "success", "Payment method "+method.Name+" updated.")
}

func (h *PaymentHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	method, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "confirm_delete.html", map[string]interface{}{
		"Kind":    "payment method",
		"Name":    method.Name,
		"Warning": "Orders that used it are kept without a payment method.",
		"Cancel":  "/pagos/",
	})
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	method, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeletePaymentMethod(r.Context(), method.ID); err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	h.redirect(w, r, "/pagos/", "success", "Payment method "+method.Name+" deleted.")
}

func (h *PaymentHandler) load(w http.ResponseWriter, r *http.Request) (*models.PaymentMethod, bool) {
	id, ok := idParam(r, "id")
	if !ok {
		h.notFound(w, r, "Payment method")
		return nil, false
	}
	method, err := h.Store.GetPaymentMethodByID(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return nil, false
	}
	return method, true
}
