package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alextreichler/tienda/internal/forms"
	"github.com/alextreichler/tienda/internal/media"
	"github.com/alextreichler/tienda/internal/models"
)

type ProductHandler struct {
	*Base
	Media *media.Library
}

func productValues(p *models.Product) url.Values {
	v := url.Values{}
	v.Set("nombre", p.Name)
	v.Set("descripcion", p.Description)
	v.Set("precio", p.Price.StringFixed(2))
	v.Set("categoria", string(p.Category))
	v.Set("talla", string(p.Size))
	v.Set("color", p.Color)
	v.Set("stock", strconv.Itoa(p.Stock))
	if p.Available {
		v.Set("disponible", "on")
	}
	return v
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.GetAllProducts(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "products.html", map[string]interface{}{"Products": products})
}

func (h *ProductHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, product *models.Product, values url.Values, errs forms.Errors) {
	h.render(w, r, status, "product_form.html", map[string]interface{}{
		"Product":    product,
		"Values":     values,
		"Errors":     errs,
		"Categories": models.Categories,
		"Sizes":      models.Sizes,
	})
}

func (h *ProductHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, nil, url.Values{"disponible": {"on"}}, nil)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r, media.MaxUploadSize); err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, nil, r.PostForm, forms.Errors{"imagen": "File too large. Max 10MB."})
		return
	}

	in, errs := forms.ParseProduct(r.PostForm)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, nil, r.PostForm, errs)
		return
	}

	imagePath, err := h.saveUpload(r)
	if err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, nil, r.PostForm, forms.Errors{"imagen": err.Error()})
		return
	}

	product := &models.Product{ImagePath: imagePath}
	in.Apply(product)
	if err := h.Store.CreateProduct(r.Context(), product); err != nil {
		h.Media.Remove(imagePath)
		h.serverError(w, r, err)
		return
	}

	h.redirect(w, r, "/productos/", "success", "Product "+product.Name+" added.")
}

func (h *ProductHandler) Edit(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, product, productValues(product), nil)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := parseForm(r, media.MaxUploadSize); err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, product, r.PostForm, forms.Errors{"imagen": "File too large. Max 10MB."})
		return
	}

	in, errs := forms.ParseProduct(r.PostForm)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, product, r.PostForm, errs)
		return
	}

	imagePath, err := h.saveUpload(r)
	if err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, product, r.PostForm, forms.Errors{"imagen": err.Error()})
		return
	}

	in.Apply(product)
	if err := h.Store.UpdateProduct(r.Context(), product); err != nil {
		h.Media.Remove(imagePath)
		h.lookupFailed(w, r, err)
		return
	}

	// Handle optional image update
	if imagePath != "" {
		old := product.ImagePath
		if err := h.Store.UpdateProductImage(r.Context(), product.ID, imagePath); err != nil {
			h.Media.Remove(imagePath)
			h.serverError(w, r, err)
			return
		}
		h.Media.Remove(old)
	}

	h.redirect(w, r, "/productos/", "success", "Product "+product.Name+" updated.")
}

// saveUpload stores the optional imagen upload and returns its media path,
// or "" when no file was sent.
func (h *ProductHandler) saveUpload(r *http.Request) (string, error) {
	file, header, err := r.FormFile("imagen")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", errors.New("Could not read the uploaded file.")
	}
	defer file.Close()

	path, err := h.Media.SaveProductImage(file, header.Filename)
	if errors.Is(err, media.ErrUnsupportedFormat) {
		return "", errors.New("Unsupported image format. Only PNG, JPG, JPEG are allowed.")
	}
	if err != nil {
		slog.Warn("Failed to store product image", "file", header.Filename, "error", err)
		return "", errors.New("Failed to process image.")
	}
	return path, nil
}

func (h *ProductHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "confirm_delete.html", map[string]interface{}{
		"Kind":    "product",
		"Name":    product.Name,
		"Warning": "Its order lines and reviews will be deleted too.",
		"Cancel":  "/productos/",
	})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	product, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteProduct(r.Context(), product.ID); err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	h.Media.Remove(product.ImagePath)
	h.redirect(w, r, "/productos/", "success", "Product "+product.Name+" deleted.")
}

func (h *ProductHandler) load(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	id, ok := idParam(r, "id")
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
