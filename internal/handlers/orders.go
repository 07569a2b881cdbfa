package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alextreichler/tienda/internal/events"
	"github.com/alextreichler/tienda/internal/forms"
	"github.com/alextreichler/tienda/internal/models"
	"github.com/alextreichler/tienda/internal/store"
)

const defaultPageSize = 10

// publishTimeout caps how long a request waits on the event publisher.
var publishTimeout = 3 * time.Second

type OrderHandler struct {
	*Base
	Events events.Publisher
}

// publish runs after the order is committed; a failure never fails the request.
func (h *OrderHandler) publish(ctx context.Context, kind events.Kind, order *models.Order) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := h.Events.Publish(ctx, events.NewOrderEvent(kind, order)); err != nil {
		slog.Error("Failed to publish order event", "kind", kind, "order_id", order.ID, "error", err)
	}
}

// orderChoices loads the selectable users and payment methods of both order forms.
func (h *OrderHandler) orderChoices(ctx context.Context, data map[string]interface{}) error {
	customers, err := h.Store.GetActiveCustomers(ctx)
	if err != nil {
		return err
	}
	methods, err := h.Store.GetActivePaymentMethods(ctx)
	if err != nil {
		return err
	}
	data["Customers"] = customers
	data["PaymentMethods"] = methods
	return nil
}

func (h *OrderHandler) renderDirect(w http.ResponseWriter, r *http.Request, status int, product *models.Product, values url.Values, errs forms.Errors, message string) {
	data := map[string]interface{}{
		"Product": product,
		"Values":  values,
		"Errors":  errs,
		"Message": message,
	}
	if err := h.orderChoices(r.Context(), data); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, status, "order_direct.html", data)
}

func (h *OrderHandler) loadProduct(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
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

func (h *OrderHandler) DirectForm(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}
	h.renderDirect(w, r, http.StatusOK, product, url.Values{"cantidad": {"1"}}, nil, "")
}

func (h *OrderHandler) CreateDirect(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	in, errs := forms.ParseDirectOrder(r.PostForm)
	if len(errs) > 0 {
		h.renderDirect(w, r, http.StatusUnprocessableEntity, product, r.PostForm, errs, "")
		return
	}

	order, err := h.Store.PlaceOrder(r.Context(), store.OrderRequest{
		UserID:          in.UserID,
		Address:         in.Address,
		PaymentMethodID: in.PaymentMethodID,
		CouponCode:      in.CouponCode,
		Lines:           []store.LineRequest{{ProductID: product.ID, Quantity: in.Quantity}},
	})
	if err != nil {
		msg, known := formMessage(err)
		if !known {
			h.serverError(w, r, err)
			return
		}
		h.renderDirect(w, r, http.StatusUnprocessableEntity, product, r.PostForm, nil, msg)
		return
	}

	slog.Info("Order placed", "order_id", order.ID, "user_id", order.UserID, "lines", len(order.Lines))
	h.publish(r.Context(), events.OrderPlaced, order)
	h.redirect(w, r, "/pedidos/", "success", fmt.Sprintf("Order #%d created.", order.ID))
}

func (h *OrderHandler) renderMultiple(w http.ResponseWriter, r *http.Request, status int, values url.Values, errs forms.Errors, message string) {
	products, err := h.Store.GetOrderableProducts(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	selected := map[string]bool{}
	for _, id := range values["productos"] {
		selected[id] = true
	}

	data := map[string]interface{}{
		"Products": products,
		"Selected": selected,
		"Values":   values,
		"Errors":   errs,
		"Message":  message,
	}
	if err := h.orderChoices(r.Context(), data); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, status, "order_multiple.html", data)
}

func (h *OrderHandler) MultiForm(w http.ResponseWriter, r *http.Request) {
	h.renderMultiple(w, r, http.StatusOK, url.Values{}, nil, "")
}

func (h *OrderHandler) CreateMultiple(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	in, errs := forms.ParseMultiOrder(r.PostForm)
	if len(errs) > 0 {
		h.renderMultiple(w, r, http.StatusUnprocessableEntity, r.PostForm, errs, "")
		return
	}

	req := store.OrderRequest{
		UserID:          in.UserID,
		Address:         in.Address,
		PaymentMethodID: in.PaymentMethodID,
		CouponCode:      in.CouponCode,
	}
	for _, l := range in.Lines {
		req.Lines = append(req.Lines, store.LineRequest{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	order, err := h.Store.PlaceOrder(r.Context(), req)
	if err != nil {
		msg, known := formMessage(err)
		if !known {
			h.serverError(w, r, err)
			return
		}
		h.renderMultiple(w, r, http.StatusUnprocessableEntity, r.PostForm, nil, msg)
		return
	}

	slog.Info("Order placed", "order_id", order.ID, "user_id", order.UserID, "lines", len(order.Lines))
	h.publish(r.Context(), events.OrderPlaced, order)
	h.redirect(w, r, "/pedidos/", "success", fmt.Sprintf("Order #%d created with %d products.", order.ID, len(order.Lines)))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = defaultPageSize
	}

	offset := (page - 1) * limit

	orders, err := h.Store.GetAllOrders(r.Context(), limit, offset)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	totalOrders, err := h.Store.GetTotalOrdersCount(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	totalPages := (totalOrders + limit - 1) / limit
	if totalPages == 0 { // Handle case with no orders
		totalPages = 1
	}

	h.render(w, r, http.StatusOK, "orders.html", map[string]interface{}{
		"Orders":      orders,
		"CurrentPage": page,
		"TotalPages":  totalPages,
		"Limit":       limit,
	})
}

func (h *OrderHandler) loadOrder(w http.ResponseWriter, r *http.Request) (*models.Order, bool) {
	id, ok := idParam(r, "id")
	if !ok {
		h.notFound(w, r, "Order")
		return nil, false
	}
	order, err := h.Store.GetOrderByID(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return nil, false
	}
	return order, true
}

func (h *OrderHandler) Detail(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "order_detail.html", map[string]interface{}{"Order": order})
}

func (h *OrderHandler) renderStatus(w http.ResponseWriter, r *http.Request, status int, order *models.Order, errs forms.Errors) {
	h.render(w, r, status, "order_status.html", map[string]interface{}{
		"Order":    order,
		"Statuses": models.OrderStatuses,
		"Values":   url.Values{"estado_pedido": {string(order.Status)}},
		"Errors":   errs,
	})
}

func (h *OrderHandler) StatusForm(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	h.renderStatus(w, r, http.StatusOK, order, nil)
}

// UpdateStatus accepts any known status regardless of the current one.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	in, errs := forms.ParseStatus(r.PostForm)
	if len(errs) > 0 {
		h.renderStatus(w, r, http.StatusUnprocessableEntity, order, errs)
		return
	}

	if err := h.Store.UpdateOrderStatus(r.Context(), order.ID, in.Status); err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	order.Status = in.Status

	slog.Info("Order status changed", "order_id", order.ID, "status", in.Status)
	h.publish(r.Context(), events.OrderStatusChanged, order)
	h.redirect(w, r, "/pedidos/", "success", fmt.Sprintf("Order #%d is now %s.", order.ID, in.Status))
}
