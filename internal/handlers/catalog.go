package handlers

import (
	"net/http"

	"github.com/alextreichler/tienda/internal/models"
)

type CatalogHandler struct {
	*Base
}

// Index lists what can be bought, optionally filtered by ?categoria=.
func (h *CatalogHandler) Index(w http.ResponseWriter, r *http.Request) {
	category := models.Category(r.URL.Query().Get("categoria"))

	products, err := h.Store.GetCatalog(r.Context(), category)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "catalog.html", map[string]interface{}{
		"Products":   products,
		"Categories": models.Categories,
		"Selected":   category,
	})
}

func (h *CatalogHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.notFound(w, r, "Product")
		return
	}

	product, err := h.Store.GetProductWithRating(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	reviews, err := h.Store.GetReviewsForProduct(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "product_detail.html", map[string]interface{}{
		"Product": product,
		"Reviews": reviews,
	})
}
