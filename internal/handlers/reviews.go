package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/alextreichler/tienda/internal/forms"
	"github.com/alextreichler/tienda/internal/models"
)

type ReviewHandler struct {
	*Base
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.Store.GetAllReviews(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "reviews.html", map[string]interface{}{"Reviews": reviews})
}

func (h *ReviewHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, product *models.Product, values url.Values, errs forms.Errors, message string) {
	customers, err := h.Store.GetActiveCustomers(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, status, "review_form.html", map[string]interface{}{
		"Product":   product,
		"Customers": customers,
		"Ratings":   []int{1, 2, 3, 4, 5},
		"Values":    values,
		"Errors":    errs,
		"Message":   message,
	})
}

func (h *ReviewHandler) loadProduct(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	id, ok := idParam(r, "producto_id")
	if !ok {
		h.notFound(w, r, "Product")
		return nil, false
	}
	product, err := h.Store.GetProductByID(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return nil, false
	}
	return product, true
}

func (h *ReviewHandler) New(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, product, url.Values{"calificacion": {"5"}}, nil, "")
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	in, errs := forms.ParseReview(r.PostForm)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, product, r.PostForm, errs, "")
		return
	}

	review := &models.Review{
		ProductID: product.ID,
		UserID:    in.UserID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}
	if err := h.Store.CreateReview(r.Context(), review); err != nil {
		msg, known := formMessage(err)
		if !known {
			h.serverError(w, r, err)
			return
		}
		h.renderForm(w, r, http.StatusUnprocessableEntity, product, r.PostForm, nil, msg)
		return
	}

	h.redirect(w, r, fmt.Sprintf("/catalogo/producto/%d/", product.ID), "success", "Thanks for your review!")
}

func (h *ReviewHandler) load(w http.ResponseWriter, r *http.Request) (*models.Review, bool) {
	id, ok := idParam(r, "id")
	if !ok {
		h.notFound(w, r, "Review")
		return nil, false
	}
	review, err := h.Store.GetReviewByID(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return nil, false
	}
	return review, true
}

func (h *ReviewHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	review, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "confirm_delete.html", map[string]interface{}{
		"Kind":   "review",
		"Name":   fmt.Sprintf("%s on %s", review.UserName, review.ProductName),
		"Cancel": "/resenas/",
	})
}

// Delete removes the review and goes back to the product it was about.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	review, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteReview(r.Context(), review.ID); err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	h.redirect(w, r, fmt.Sprintf("/catalogo/producto/%d/", review.ProductID), "success", "Review deleted.")
}
