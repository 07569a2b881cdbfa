package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alextreichler/tienda/internal/events"
	"github.com/alextreichler/tienda/internal/media"
	"github.com/alextreichler/tienda/internal/models"
	"github.com/alextreichler/tienda/internal/store"
	"github.com/alextreichler/tienda/web"
	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var kinds []events.Kind
	for _, ev := range p.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

type testApp struct {
	store     *store.Store
	media     *media.Library
	published *recordingPublisher
	server    *httptest.Server
	client    *http.Client
}

// stallingPublisher behaves like an unreachable broker.
type stallingPublisher struct{}

func (stallingPublisher) Publish(ctx context.Context, _ events.OrderEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stallingPublisher) Close() error { return nil }

func newTestApp(t *testing.T, requireLogin bool) *testApp {
	t.Helper()
	published := &recordingPublisher{}
	app := newTestAppWith(t, requireLogin, published)
	app.published = published
	return app
}

func newTestAppWith(t *testing.T, requireLogin bool, publisher events.Publisher) *testApp {
	t.Helper()
	dir := t.TempDir()

	s, err := store.NewStore(filepath.Join(dir, "tienda.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	templates := NewTemplateCache()
	require.NoError(t, templates.Load(web.Templates()))

	library, err := media.NewLibrary(filepath.Join(dir, "media"))
	require.NoError(t, err)

	app := &testApp{store: s, media: library}
	app.server = httptest.NewServer(NewRouter(RouterOptions{
		Store:        s,
		Templates:    templates,
		SessionStore: sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
		Media:        library,
		Events:       publisher,
		Static:       web.Static(),
		RequireLogin: requireLogin,
	}))
	t.Cleanup(app.server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	app.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return app
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func (a *testApp) seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{
		Name:    "Lucía " + strings.Split(email, "@")[0],
		Email:   email,
		Phone:   "5550001",
		Address: "Av. Reforma 1",
		Role:    models.RoleCustomer,
		Active:  true,
	}
	require.NoError(t, a.store.CreateUser(context.Background(), u))
	return u
}

func (a *testApp) seedProduct(t *testing.T, name string, category models.Category, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Description: "Lovely " + name,
		Price:       decimal.RequireFromString(price),
		Category:    category,
		Size:        "M",
		Color:       "rojo",
		Stock:       stock,
		Available:   true,
	}
	require.NoError(t, a.store.CreateProduct(context.Background(), p))
	return p
}

func (a *testApp) stockOf(t *testing.T, id int64) int {
	t.Helper()
	p, err := a.store.GetProductByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (a *testApp) orderCount(t *testing.T) int {
	t.Helper()
	n, err := a.store.GetTotalOrdersCount(context.Background())
	require.NoError(t, err)
	return n
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestCatalogFiltersByCategory(t *testing.T) {
	app := newTestApp(t, false)
	app.seedProduct(t, "Vestido", models.CategoryClothing, "29.90", 5)
	app.seedProduct(t, "Sandalia", models.CategoryShoes, "19.90", 5)

	resp, body := app.get(t, "/catalogo/?categoria=ropa")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Vestido")
	assert.NotContains(t, body, "Sandalia")

	_, body = app.get(t, "/catalogo/")
	assert.Contains(t, body, "Vestido")
	assert.Contains(t, body, "Sandalia")

	resp, body = app.get(t, "/catalogo/?categoria=juguetes")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "Vestido")
}

func TestMissingPagesRenderNotFound(t *testing.T) {
	app := newTestApp(t, false)

	for _, path := range []string{
		"/catalogo/producto/999/",
		"/catalogo/producto/abc/",
		"/pedidos/crear-directo/999/",
		"/usuarios/actualizar/42/",
		"/pedidos/7/",
		"/no-such-page",
	} {
		resp, body := app.get(t, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Contains(t, body, "not found", path)
	}
}

func TestProductDetailShowsRatingAndReviews(t *testing.T) {
	app := newTestApp(t, false)
	p := app.seedProduct(t, "Bolso", models.CategoryAccessories, "45.00", 3)
	u := app.seedUser(t, "eva@example.com")
	require.NoError(t, app.store.CreateReview(context.Background(), &models.Review{
		ProductID: p.ID, UserID: u.ID, Rating: 4, Comment: "Muy bonito",
	}))

	resp, body := app.get(t, "/catalogo/producto/"+idString(p.ID)+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Bolso")
	assert.Contains(t, body, "4.0")
	assert.Contains(t, body, "Muy bonito")
}

func TestDirectOrderReservesStock(t *testing.T) {
	app := newTestApp(t, false)
	p := app.seedProduct(t, "Vestido", models.CategoryClothing, "29.90", 5)
	u := app.seedUser(t, "ana@example.com")
	path := "/pedidos/crear-directo/" + idString(p.ID) + "/"

	resp, body := app.get(t, path)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Vestido")

	resp, _ = app.post(t, path, url.Values{
		"usuario_id": {idString(u.ID)},
		"direccion":  {"Calle Luna 3"},
		"cantidad":   {"3"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/pedidos/", resp.Header.Get("Location"))
	assert.Equal(t, 2, app.stockOf(t, p.ID))
	assert.Equal(t, []events.Kind{events.OrderPlaced}, app.published.kinds())

	_, body = app.get(t, "/pedidos/")
	assert.Contains(t, body, "Order #1 created.")
	assert.Contains(t, body, "89.70")
}

func TestOrderDoesNotWaitOnStalledPublisher(t *testing.T) {
	old := publishTimeout
	publishTimeout = 50 * time.Millisecond
	t.Cleanup(func() { publishTimeout = old })

	app := newTestAppWith(t, false, stallingPublisher{})
	p := app.seedProduct(t, "Vestido", models.CategoryClothing, "29.90", 5)
	u := app.seedUser(t, "ana@example.com")

	start := time.Now()
	resp, _ := app.post(t, "/pedidos/crear-directo/"+idString(p.ID)+"/", url.Values{
		"usuario_id": {idString(u.ID)},
		"direccion":  {"Calle Luna 3"},
		"cantidad":   {"1"},
	})
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 1, app.orderCount(t))
	assert.Equal(t, 4, app.stockOf(t, p.ID))
}

func TestDirectOrderRejectsMoreThanInStock(t *testing.T) {
	app := newTestApp(t, false)
	p := app.seedProduct(t, "Vestido", models.CategoryClothing, "29.90", 2)
	u := app.seedUser(t, "ana@example.com")

	resp, body := app.post(t, "/pedidos/crear-directo/"+idString(p.ID)+"/", url.Values{
		"usuario_id": {idString(u.ID)},
		"direccion":  {"Calle Luna 3"},
		"cantidad":   {"4"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Insufficient stock for Vestido. Only 2 units available.")
	assert.Contains(t, body, "Calle Luna 3", "form keeps what was typed")
	assert.Equal(t, 2, app.stockOf(t, p.ID))
	assert.Zero(t, app.orderCount(t))
	assert.Empty(t, app.published.kinds())
}

func TestDirectOrderValidatesFields(t *testing.T) {
	app := newTestApp(t, false)
	p := app.seedProduct(t, "Vestido", models.CategoryClothing, "29.90", 2)

	resp, body := app.post(t, "/pedidos/crear-directo/"+idString(p.ID)+"/", url.Values{
		"cantidad": {"0"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "This field is required.")
	assert.Zero(t, app.orderCount(t))
}

func TestMultipleOrderRollsBackWhenOneLineFails(t *testing.T) {
	app := newTestApp(t, false)
	a := app.seedProduct(t, "Blusa", models.CategoryClothing, "15.00", 10)
	b := app.seedProduct(t, "Collar", models.CategoryAccessories, "8.50", 1)
	u := app.seedUser(t, "ana@example.com")

	resp, body := app.post(t, "/pedidos/crear-multiple/", url.Values{
		"usuario_id":                 {idString(u.ID)},
		"direccion":                  {"Calle Sol 9"},
		"productos":                  {idString(a.ID), idString(b.ID)},
		"cantidad_" + idString(a.ID): {"2"},
		"cantidad_" + idString(b.ID): {"3"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Insufficient stock for Collar. Only 1 units available.")
	assert.Equal(t, 10, app.stockOf(t, a.ID))
	assert.Equal(t, 1, app.stockOf(t, b.ID))
	assert.Zero(t, app.orderCount(t))
}

func TestMultipleOrderCreatesAllLines(t *testing.T) {
	app := newTestApp(t, false)
	a := app.seedProduct(t, "Blusa", models.CategoryClothing, "15.00", 10)
	b := app.seedProduct(t, "Collar", models.CategoryAccessories, "8.50", 4)
	u := app.seedUser(t, "ana@example.com")

	resp, _ := app.post(t, "/pedidos/crear-multiple/", url.Values{
		"usuario_id":                 {idString(u.ID)},
		"direccion":                  {"Calle Sol 9"},
		"productos":                  {idString(b.ID), idString(a.ID)},
		"cantidad_" + idString(a.ID): {"2"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 8, app.stockOf(t, a.ID))
	assert.Equal(t, 3, app.stockOf(t, b.ID))

	order, err := app.store.GetOrderByID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, b.ID, order.Lines[0].ProductID)
	assert.Equal(t, "38.50", order.Total().StringFixed(2))

	_, body := app.get(t, "/pedidos/1/")
	assert.Contains(t, body, "Collar")
	assert.Contains(t, body, "38.50")
}

func TestMultipleOrderNeedsAProduct(t *testing.T) {
	app := newTestApp(t, false)
	u := app.seedUser(t, "ana@example.com")

	resp, body := app.post(t, "/pedidos/crear-multiple/", url.Values{
		"usuario_id": {idString(u.ID)},
		"direccion":  {"Calle Sol 9"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Select at least one product.")
}

func TestOrderFormsShowPaymentMethodErrors(t *testing.T) {
	app := newTestApp(t, false)
	a := app.seedProduct(t, "Blusa", models.CategoryClothing, "15.00", 10)
	u := app.seedUser(t, "ana@example.com")
	form := url.Values{
		"usuario_id":  {idString(u.ID)},
		"direccion":   {"Calle Sol 9"},
		"productos":   {idString(a.ID)},
		"cantidad":    {"1"},
		"metodo_pago": {"tarjeta"},
	}

	for _, path := range []string{"/pedidos/crear-multiple/", "/pedidos/crear-directo/" + idString(a.ID) + "/"} {
		resp, body := app.post(t, path, form)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, path)
		assert.Contains(t, body, `<p class="field-error">Select a valid choice.</p>`, path)
		assert.Contains(t, body, `name="cupon_codigo"`, path)
	}
	assert.Zero(t, app.orderCount(t))
}

func TestOrderStatusUpdate(t *testing.T) {
	app := newTestApp(t, false)
	p := app.seedProduct(t, "Vestido", models.CategoryClothing, "29.90", 5)
	u := app.seedUser(t, "ana@example.com")
	order, err := app.store.PlaceOrder(context.Background(), store.OrderRequest{
		UserID:  u.ID,
		Address: "Calle Luna 3",
		Lines:   []store.LineRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	path := "/pedidos/actualizar-estado/" + idString(order.ID) + "/"

	resp, body := app.post(t, path, url.Values{"estado_pedido": {"perdido"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Select a valid choice.")

	resp, _ = app.post(t, path, url.Values{"estado_pedido": {"entregado"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// Any known status is accepted, even going backwards.
	resp, _ = app.post(t, path, url.Values{"estado_pedido": {"pendiente"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	got, err := app.store.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, []events.Kind{events.OrderStatusChanged, events.OrderStatusChanged}, app.published.kinds())
}

func TestOrderListPaginates(t *testing.T) {
	app := newTestApp(t, false)
	p := app.seedProduct(t, "Vestido", models.CategoryClothing, "29.90", 50)
	u := app.seedUser(t, "ana@example.com")
	for i := 0; i < 3; i++ {
		_, err := app.store.PlaceOrder(context.Background(), store.OrderRequest{
			UserID:  u.ID,
			Address: "Calle Luna 3",
			Lines:   []store.LineRequest{{ProductID: p.ID, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	resp, body := app.get(t, "/pedidos/?page=2&limit=2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Page 2 of 2")
	assert.Contains(t, body, "page=1")
	assert.NotContains(t, body, "Next")
}

func TestReviewCannotBeSubmittedTwice(t *testing.T) {
	app := newTestApp(t, false)
	p := app.seedProduct(t, "Bolso", models.CategoryAccessories, "45.00", 3)
	u := app.seedUser(t, "eva@example.com")
	path := "/resenas/agregar/" + idString(p.ID) + "/"
	form := url.Values{
		"usuario_id":   {idString(u.ID)},
		"calificacion": {"5"},
		"comentario":   {"Perfecto"},
	}

	resp, _ := app.post(t, path, form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/catalogo/producto/"+idString(p.ID)+"/", resp.Header.Get("Location"))

	form.Set("calificacion", "1")
	resp, body := app.post(t, path, form)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "This user has already reviewed this product.")

	reviews, err := app.store.GetReviewsForProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestReviewDeleteReturnsToProduct(t *testing.T) {
	app := newTestApp(t, false)
	p := app.seedProduct(t, "Bolso", models.CategoryAccessories, "45.00", 3)
	u := app.seedUser(t, "eva@example.com")
	review := &models.Review{ProductID: p.ID, UserID: u.ID, Rating: 3}
	require.NoError(t, app.store.CreateReview(context.Background(), review))
	path := "/resenas/borrar/" + idString(review.ID) + "/"

	resp, body := app.get(t, path)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Bolso")

	resp, _ = app.post(t, path, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/catalogo/producto/"+idString(p.ID)+"/", resp.Header.Get("Location"))

	resp, _ = app.get(t, path)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserCRUD(t *testing.T) {
	app := newTestApp(t, false)
	valid := url.Values{
		"nombre":       {"Marta Gómez"},
		"email":        {"marta@example.com"},
		"telefono":     {"5551234"},
		"direccion":    {"Calle Mar 2"},
		"tipo_usuario": {"cliente"},
		"activo":       {"on"},
	}

	resp, body := app.post(t, "/usuarios/agregar/", url.Values{"email": {"not-an-email"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Enter a valid email address.")

	resp, _ = app.post(t, "/usuarios/agregar/", valid)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body = app.post(t, "/usuarios/agregar/", valid)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "A user with this email already exists.")

	users, err := app.store.GetAllUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	id := idString(users[0].ID)

	valid.Set("nombre", "Marta G.")
	valid.Del("activo")
	resp, _ = app.post(t, "/usuarios/actualizar/"+id+"/", valid)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	got, err := app.store.GetUserByID(context.Background(), users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Marta G.", got.Name)
	assert.False(t, got.Active)

	resp, _ = app.post(t, "/usuarios/borrar/"+id+"/", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp, _ = app.get(t, "/usuarios/actualizar/"+id+"/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCouponAndPaymentMethodForms(t *testing.T) {
	app := newTestApp(t, false)

	resp, body := app.post(t, "/cupones/agregar/", url.Values{
		"codigo":               {"VERANO"},
		"descuento_porcentaje": {"150"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Must be between 0 and 100.")

	resp, _ = app.post(t, "/cupones/agregar/", url.Values{
		"codigo":               {"VERANO"},
		"descuento_porcentaje": {"15,5"},
		"fecha_expiracion":     {"2030-08-31"},
		"activo":               {"on"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = app.get(t, "/cupones/")
	assert.Contains(t, body, "VERANO")
	assert.Contains(t, body, "15.50%")
	assert.Contains(t, body, "2030-08-31")

	resp, _ = app.post(t, "/pagos/agregar/", url.Values{
		"nombre": {"Visa"},
		"tipo":   {"cheque"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = app.post(t, "/pagos/agregar/", url.Values{
		"nombre": {"Visa"},
		"tipo":   {"tarjeta"},
		"activo": {"on"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = app.get(t, "/pagos/")
	assert.Contains(t, body, "Visa")
}

func pngUpload(t *testing.T, fields url.Values, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, 1200, 600))
	for x := 0; x < 1200; x++ {
		img.Set(x, x%600, color.RGBA{R: 200, A: 255})
	}
	part, err := mw.CreateFormFile("imagen", filename)
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestProductCreateWithImage(t *testing.T) {
	app := newTestApp(t, false)
	fields := url.Values{
		"nombre":      {"Falda"},
		"descripcion": {"Falda plisada"},
		"precio":      {"24.99"},
		"categoria":   {"ropa"},
		"talla":       {"S"},
		"color":       {"azul"},
		"stock":       {"7"},
		"disponible":  {"on"},
	}
	body, contentType := pngUpload(t, fields, "falda.png")

	resp, err := app.client.Post(app.server.URL+"/productos/agregar/", contentType, body)
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	products, err := app.store.GetAllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "24.99", p.Price.StringFixed(2))
	require.NotEmpty(t, p.ImagePath)
	_, err = os.Stat(filepath.Join(app.media.Root, p.ImagePath))
	assert.NoError(t, err)

	resp, _ = app.get(t, media.URL(p.ImagePath))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Directories are never listed.
	for _, dir := range []string{"/media/productos/", "/media/", "/static/"} {
		resp, body := app.get(t, dir)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, dir)
		assert.NotContains(t, body, filepath.Base(p.ImagePath), dir)
	}
	resp, _ = app.get(t, "/static/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.post(t, "/productos/borrar/"+idString(p.ID)+"/", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, err = os.Stat(filepath.Join(app.media.Root, p.ImagePath))
	assert.True(t, os.IsNotExist(err))
}

func TestProductCreateRejectsUnsupportedImage(t *testing.T) {
	app := newTestApp(t, false)
	fields := url.Values{
		"nombre":      {"Falda"},
		"descripcion": {"Falda plisada"},
		"precio":      {"24.99"},
		"categoria":   {"ropa"},
		"color":       {"azul"},
		"stock":       {"7"},
	}
	body, contentType := pngUpload(t, fields, "falda.gif")

	resp, err := app.client.Post(app.server.URL+"/productos/agregar/", contentType, body)
	require.NoError(t, err)
	page := readBody(t, resp)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, page, "unsupported image format")

	products, err := app.store.GetAllProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestBackOfficeRequiresLogin(t *testing.T) {
	app := newTestApp(t, true)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, app.store.CreateStaff(context.Background(), "admin", string(hash)))

	resp, _ := app.get(t, "/usuarios/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// The storefront stays public.
	resp, _ = app.get(t, "/catalogo/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.post(t, "/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = app.post(t, "/login", url.Values{"username": {"admin"}, "password": {"s3cret"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, body := app.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Dashboard")

	resp, _ = app.post(t, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp, _ = app.get(t, "/usuarios/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestTemplatesLoadEveryPage(t *testing.T) {
	tc := NewTemplateCache()
	require.NoError(t, tc.Load(web.Templates()))

	for _, name := range []string{
		"catalog.html", "product_detail.html", "order_direct.html", "order_multiple.html",
		"orders.html", "order_detail.html", "order_status.html", "dashboard.html",
		"users.html", "user_form.html", "products.html", "product_form.html",
		"payments.html", "payment_form.html", "coupons.html", "coupon_form.html",
		"reviews.html", "review_form.html", "confirm_delete.html", "login.html", "not_found.html",
	} {
		assert.NotNil(t, tc.Get(name), name)
	}
	assert.Nil(t, tc.Get("layout.html"))
}
