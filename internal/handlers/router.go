package handlers

import (
	"io/fs"
	"net/http"
	"os"

	"github.com/alextreichler/tienda/internal/events"
	"github.com/alextreichler/tienda/internal/media"
	"github.com/alextreichler/tienda/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
)

type RouterOptions struct {
	Store        *store.Store
	Templates    *TemplateCache
	SessionStore sessions.Store
	Media        *media.Library
	Events       events.Publisher
	Static       fs.FS
	// Limiter throttles order and review submissions; nil disables it.
	Limiter *RateLimiter
	// RequireLogin puts the back-office pages behind the staff login.
	RequireLogin bool
}

// crudHandler is the page set shared by users, products, payment methods
// and coupons.
type crudHandler interface {
	List(http.ResponseWriter, *http.Request)
	New(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Edit(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	ConfirmDelete(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

func mountCRUD(r chi.Router, prefix string, h crudHandler) {
	r.Get(prefix+"/", h.List)
	r.Get(prefix+"/agregar/", h.New)
	r.Post(prefix+"/agregar/", h.Create)
	r.Get(prefix+"/actualizar/{id}/", h.Edit)
	r.Post(prefix+"/actualizar/{id}/", h.Update)
	r.Get(prefix+"/borrar/{id}/", h.ConfirmDelete)
	r.Post(prefix+"/borrar/{id}/", h.Delete)
}

// filesOnly hides directories so file servers never list them.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

func NewRouter(o RouterOptions) http.Handler {
	base := &Base{
		Store:        o.Store,
		Templates:    o.Templates,
		SessionStore: o.SessionStore,
	}
	admin := &AdminHandler{Base: base}
	catalog := &CatalogHandler{Base: base}
	orders := &OrderHandler{Base: base, Events: o.Events}
	reviews := &ReviewHandler{Base: base}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if o.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(filesOnly{http.FS(o.Static)})))
	}
	if o.Media != nil {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(filesOnly{http.Dir(o.Media.Root)})))
	}

	r.Get("/login", admin.LoginGet)
	r.Post("/login", admin.LoginPost)
	r.Get("/logout", admin.Logout)
	r.Post("/logout", admin.Logout)

	// Public storefront
	r.Get("/catalogo/", catalog.Index)
	r.Get("/catalogo/producto/{id}/", catalog.Detail)
	r.Group(func(r chi.Router) {
		if o.Limiter != nil {
			r.Use(o.Limiter.Middleware)
		}
		r.Get("/pedidos/crear-directo/{producto_id}/", orders.DirectForm)
		r.Post("/pedidos/crear-directo/{producto_id}/", orders.CreateDirect)
		r.Get("/pedidos/crear-multiple/", orders.MultiForm)
		r.Post("/pedidos/crear-multiple/", orders.CreateMultiple)
		r.Get("/resenas/agregar/{producto_id}/", reviews.New)
		r.Post("/resenas/agregar/{producto_id}/", reviews.Create)
	})

	// Back office
	r.Group(func(r chi.Router) {
		if o.RequireLogin {
			r.Use(admin.AuthMiddleware)
		}
		r.Get("/", admin.Dashboard)

		mountCRUD(r, "/usuarios", &UserHandler{Base: base})
		mountCRUD(r, "/productos", &ProductHandler{Base: base, Media: o.Media})
		mountCRUD(r, "/pagos", &PaymentHandler{Base: base})
		mountCRUD(r, "/cupones", &CouponHandler{Base: base})

		r.Get("/pedidos/", orders.List)
		r.Get("/pedidos/{id}/", orders.Detail)
		r.Get("/pedidos/actualizar-estado/{id}/", orders.StatusForm)
		r.Post("/pedidos/actualizar-estado/{id}/", orders.UpdateStatus)

		r.Get("/resenas/", reviews.List)
		r.Get("/resenas/borrar/{id}/", reviews.ConfirmDelete)
		r.Post("/resenas/borrar/{id}/", reviews.Delete)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.notFound(w, r, "Page")
	})

	return r
}
