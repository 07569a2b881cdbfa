package forms

import (
	"net/url"
	"strconv"
	"time"

	"github.com/alextreichler/tienda/internal/models"
	"github.com/shopspring/decimal"
)

type UserInput struct {
	Name    string      `form:"nombre" validate:"required,max=100"`
	Email   string      `form:"email" validate:"required,email,max=254"`
	Phone   string      `form:"telefono" validate:"required,max=15"`
	Address string      `form:"direccion" validate:"required"`
	Role    models.Role `form:"tipo_usuario" validate:"oneof=cliente vendedor administrador"`
	Active  bool        `form:"activo"`
}

func ParseUser(values url.Values) (UserInput, Errors) {
	f := New(values)
	in := UserInput{
		Name:    f.Get("nombre"),
		Email:   f.Get("email"),
		Phone:   f.Get("telefono"),
		Address: f.Get("direccion"),
		Role:    models.Role(f.Get("tipo_usuario")),
		Active:  f.Checkbox("activo"),
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	f.check(in)
	return in, f.Errors
}

func (in UserInput) Apply(u *models.User) {
	u.Name = in.Name
	u.Email = in.Email
	u.Phone = in.Phone
	u.Address = in.Address
	u.Role = in.Role
	u.Active = in.Active
}

type ProductInput struct {
	Name        string          `form:"nombre" validate:"required,max=200"`
	Description string          `form:"descripcion" validate:"required"`
	Price       decimal.Decimal `form:"precio" validate:"-"`
	Category    models.Category `form:"categoria" validate:"oneof=ropa accesorios zapatos belleza hogar"`
	Size        models.Size     `form:"talla" validate:"omitempty,oneof=XS S M L XL Única"`
	Color       string          `form:"color" validate:"required,max=50"`
	Stock       int             `form:"stock" validate:"gte=0"`
	Available   bool            `form:"disponible"`
}

func ParseProduct(values url.Values) (ProductInput, Errors) {
	f := New(values)
	in := ProductInput{
		Name:        f.Get("nombre"),
		Description: f.Get("descripcion"),
		Price:       f.Decimal("precio"),
		Category:    models.Category(f.Get("categoria")),
		Size:        models.Size(f.Get("talla")),
		Color:       f.Get("color"),
		Available:   f.Checkbox("disponible"),
	}
	if f.Get("stock") == "" {
		f.Errors.Add("stock", "This field is required.")
	} else {
		in.Stock = f.Int("stock", 0)
	}
	checkMoney(f, "precio", in.Price, 10)
	if f.Errors.Get("precio") == "" && !in.Price.IsPositive() {
		f.Errors.Add("precio", "Price must be greater than zero.")
	}
	f.check(in)
	return in, f.Errors
}

func (in ProductInput) Apply(p *models.Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Category = in.Category
	p.Size = in.Size
	p.Color = in.Color
	p.Stock = in.Stock
	p.Available = in.Available
}

// checkMoney enforces at most two decimal places and digits significant digits.
func checkMoney(f *Form, field string, d decimal.Decimal, digits int) {
	if f.Errors.Get(field) != "" {
		return
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		f.Errors.Add(field, "Use at most 2 decimal places.")
		return
	}
	limit := decimal.New(1, int32(digits-2))
	if d.Abs().GreaterThanOrEqual(limit) {
		f.Errors.Add(field, "Number is too large.")
	}
}

type PaymentMethodInput struct {
	Name   string             `form:"nombre" validate:"required,max=100"`
	Kind   models.PaymentKind `form:"tipo" validate:"oneof=tarjeta paypal efectivo"`
	Active bool               `form:"activo"`
}

func ParsePaymentMethod(values url.Values) (PaymentMethodInput, Errors) {
	f := New(values)
	in := PaymentMethodInput{
		Name:   f.Get("nombre"),
		Kind:   models.PaymentKind(f.Get("tipo")),
		Active: f.Checkbox("activo"),
	}
	f.check(in)
	return in, f.Errors
}

func (in PaymentMethodInput) Apply(m *models.PaymentMethod) {
	m.Name = in.Name
	m.Kind = in.Kind
	m.Active = in.Active
}

type CouponInput struct {
	Code       string          `form:"codigo" validate:"required,max=50"`
	Percentage decimal.Decimal `form:"descuento_porcentaje" validate:"-"`
	ExpiresOn  *time.Time      `form:"fecha_expiracion" validate:"-"`
	Active     bool            `form:"activo"`
}

func ParseCoupon(values url.Values) (CouponInput, Errors) {
	f := New(values)
	in := CouponInput{
		Code:       f.Get("codigo"),
		Percentage: f.Decimal("descuento_porcentaje"),
		ExpiresOn:  f.OptionalDate("fecha_expiracion"),
		Active:     f.Checkbox("activo"),
	}
	checkMoney(f, "descuento_porcentaje", in.Percentage, 5)
	if f.Errors.Get("descuento_porcentaje") == "" &&
		(in.Percentage.IsNegative() || in.Percentage.GreaterThan(decimal.NewFromInt(100))) {
		f.Errors.Add("descuento_porcentaje", "Must be between 0 and 100.")
	}
	f.check(in)
	return in, f.Errors
}

func (in CouponInput) Apply(c *models.Coupon) {
	c.Code = in.Code
	c.Percentage = in.Percentage
	c.ExpiresOn = in.ExpiresOn
	c.Active = in.Active
}

type ReviewInput struct {
	UserID  int64  `form:"usuario_id" validate:"gt=0"`
	Rating  int    `form:"calificacion" validate:"min=1,max=5"`
	Comment string `form:"comentario" validate:"max=2000"`
}

func ParseReview(values url.Values) (ReviewInput, Errors) {
	f := New(values)
	in := ReviewInput{
		UserID:  f.ID("usuario_id"),
		Comment: f.Get("comentario"),
	}
	if f.Get("calificacion") == "" {
		f.Errors.Add("calificacion", "This field is required.")
	} else {
		in.Rating = f.Int("calificacion", 0)
	}
	f.check(in)
	return in, f.Errors
}

// DirectOrderInput is a one-product order; the product comes from the URL.
type DirectOrderInput struct {
	UserID          int64  `form:"usuario_id" validate:"gt=0"`
	Address         string `form:"direccion" validate:"required"`
	Quantity        int    `form:"cantidad" validate:"min=1"`
	PaymentMethodID *int64 `form:"metodo_pago" validate:"-"`
	CouponCode      string `form:"cupon_codigo" validate:"max=50"`
}

func ParseDirectOrder(values url.Values) (DirectOrderInput, Errors) {
	f := New(values)
	in := DirectOrderInput{
		UserID:          f.ID("usuario_id"),
		Address:         f.Get("direccion"),
		Quantity:        f.Int("cantidad", 1),
		PaymentMethodID: f.OptionalID("metodo_pago"),
		CouponCode:      f.Get("cupon_codigo"),
	}
	f.check(in)
	return in, f.Errors
}

// OrderLineInput is one selected product of a multi-product order.
type OrderLineInput struct {
	ProductID int64
	Quantity  int
}

type MultiOrderInput struct {
	UserID          int64            `form:"usuario_id" validate:"gt=0"`
	Address         string           `form:"direccion" validate:"required"`
	Lines           []OrderLineInput `form:"productos" validate:"-"`
	PaymentMethodID *int64           `form:"metodo_pago" validate:"-"`
	CouponCode      string           `form:"cupon_codigo" validate:"max=50"`
}

// ParseMultiOrder reads the repeated productos field in submission order
// and each product's quantity from cantidad_<id>, which defaults to 1.
func ParseMultiOrder(values url.Values) (MultiOrderInput, Errors) {
	f := New(values)
	in := MultiOrderInput{
		UserID:          f.ID("usuario_id"),
		Address:         f.Get("direccion"),
		PaymentMethodID: f.OptionalID("metodo_pago"),
		CouponCode:      f.Get("cupon_codigo"),
	}

	ids := f.IDs("productos")
	if len(ids) == 0 && f.Errors.Get("productos") == "" {
		f.Errors.Add("productos", "Select at least one product.")
	}
	for _, id := range ids {
		field := QuantityField(id)
		qty := f.Int(field, 1)
		if qty < 1 && f.Errors.Get(field) == "" {
			f.Errors.Add(field, "Must be at least 1.")
		}
		in.Lines = append(in.Lines, OrderLineInput{ProductID: id, Quantity: qty})
	}

	f.check(in)
	return in, f.Errors
}

// QuantityField names the per-product quantity input of the multi-product form.
func QuantityField(productID int64) string {
	return "cantidad_" + strconv.FormatInt(productID, 10)
}

type StatusInput struct {
	Status models.OrderStatus `form:"estado_pedido" validate:"oneof=pendiente confirmado enviado entregado cancelado"`
}

func ParseStatus(values url.Values) (StatusInput, Errors) {
	f := New(values)
	in := StatusInput{Status: models.OrderStatus(f.Get("estado_pedido"))}
	f.check(in)
	return in, f.Errors
}
