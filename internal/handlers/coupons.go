package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/alextreichler/tienda/internal/forms"
	"github.com/alextreichler/tienda/internal/models"
	"github.com/alextreichler/tienda/internal/store"
)

type CouponHandler struct {
	*Base
}

func couponValues(c *models.Coupon) url.Values {
	v := url.Values{}
	v.Set("codigo", c.Code)
	v.Set("descuento_porcentaje", c.Percentage.StringFixed(2))
	if c.ExpiresOn != nil {
		v.Set("fecha_expiracion", c.ExpiresOn.Format(forms.DateLayout))
	}
	if c.Active {
		v.Set("activo", "on")
	}
	return v
}

func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.Store.GetAllCoupons(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "coupons.html", map[string]interface{}{"Coupons": coupons})
}

func (h *CouponHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, coupon *models.Coupon, values url.Values, errs forms.Errors) {
	h.render(w, r, status, "coupon_form.html", map[string]interface{}{
		"Coupon": coupon,
		"Values": values,
		"Errors": errs,
	})
}

func (h *CouponHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, nil, url.Values{"activo": {"on"}}, nil)
}

func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	in, errs := forms.ParseCoupon(r.PostForm)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, nil, r.PostForm, errs)
		return
	}

	coupon := &models.Coupon{}
	in.Apply(coupon)
	if err := h.Store.CreateCoupon(r.Context(), coupon); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.renderForm(w, r, http.StatusUnprocessableEntity, nil, r.PostForm, forms.Errors{"codigo": "A coupon with this code already exists."})
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.redirect(w, r, "/cupones/", "success", "Coupon "+coupon.Code+" added.")
}

func (h *CouponHandler) Edit(w http.ResponseWriter, r *http.Request) {
	coupon, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, coupon, couponValues(coupon), nil)
}

func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	coupon, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	in, errs := forms.ParseCoupon(r.PostForm)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, coupon, r.PostForm, errs)
		return
	}

	in.Apply(coupon)
	if err := h.Store.UpdateCoupon(r.Context(), coupon); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.renderForm(w, r, http.StatusUnprocessableEntity, coupon, r.PostForm, forms.Errors{"codigo": "A coupon with this code already exists."})
			return
		}
		h.lookupFailed(w, r, err)
		return
	}
	h.redirect(w, r, "/cupones/", "success", "Coupon "+coupon.Code+" updated.")
}

func (h *CouponHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	coupon, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "confirm_delete.html", map[string]interface{}{
		"Kind":    "coupon",
		"Name":    coupon.Code,
		"Warning": "Orders that used it are kept without a coupon.",
		"Cancel":  "/cupones/",
	})
}

func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	coupon, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteCoupon(r.Context(), coupon.ID); err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	h.redirect(w, r, "/cupones/", "success", "Coupon "+coupon.Code+" deleted.")
}

func (h *CouponHandler) load(w http.ResponseWriter, r *http.Request) (*models.Coupon, bool) {
	id, ok := idParam(r, "id")
	if !ok {
		h.notFound(w, r, "Coupon")
		return nil, false
	}
	coupon, err := h.Store.GetCouponByID(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return nil, false
	}
	return coupon, true
}
