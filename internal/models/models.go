package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "cliente"
	RoleVendor   Role = "vendedor"
	RoleAdmin    Role = "administrador"
)

var Roles = []Role{RoleCustomer, RoleVendor, RoleAdmin}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registered_at"`
}

type Category string

const (
	CategoryClothing    Category = "ropa"
	CategoryAccessories Category = "accesorios"
	CategoryShoes       Category = "zapatos"
	CategoryBeauty      Category = "belleza"
	CategoryHome        Category = "hogar"
)

var Categories = []Category{CategoryClothing, CategoryAccessories, CategoryShoes, CategoryBeauty, CategoryHome}

// ValidCategory reports whether c is one of the catalog categories.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Size is optional on a product; the empty string means "no size".
type Size string

var Sizes = []Size{"XS", "S", "M", "L", "XL", "Única"}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Size        Size            `json:"size"`
	Color       string          `json:"color"`
	Stock       int             `json:"stock"`
	ImagePath   string          `json:"image_path"` // relative to the media dir, "" when absent
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"created_at"`

	// Filled by catalog queries only.
	AverageRating *float64 `json:"average_rating,omitempty"`
	ReviewCount   int      `json:"review_count"`
}

type PaymentKind string

const (
	PaymentCard   PaymentKind = "tarjeta"
	PaymentPayPal PaymentKind = "paypal"
	PaymentCash   PaymentKind = "efectivo"
)

var PaymentKinds = []PaymentKind{PaymentCard, PaymentPayPal, PaymentCash}

type PaymentMethod struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Kind   PaymentKind `json:"kind"`
	Active bool        `json:"active"`
}

type Coupon struct {
	ID         int64           `json:"id"`
	Code       string          `json:"code"`
	Percentage decimal.Decimal `json:"percentage"`
	ExpiresOn  *time.Time      `json:"expires_on,omitempty"`
	Active     bool            `json:"active"`
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pendiente"
	StatusConfirmed OrderStatus = "confirmado"
	StatusShipped   OrderStatus = "enviado"
	StatusDelivered OrderStatus = "entregado"
	StatusCancelled OrderStatus = "cancelado"
)

var OrderStatuses = []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

type Order struct {
	ID        int64       `json:"id"`
	Status    OrderStatus `json:"status"`
	Address   string      `json:"address"`
	CreatedAt time.Time   `json:"created_at"`

	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"` // For display convenience

	PaymentMethodID   *int64 `json:"payment_method_id,omitempty"`
	PaymentMethodName string `json:"payment_method_name,omitempty"`

	CouponID         *int64          `json:"coupon_id,omitempty"`
	CouponCode       string          `json:"coupon_code,omitempty"`
	CouponPercentage decimal.Decimal `json:"coupon_percentage"`

	Lines []OrderLine `json:"lines"`
}

// Total is the sum of the line subtotals. It is never persisted.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Discount is what the attached coupon takes off the total, zero without a coupon.
func (o Order) Discount() decimal.Decimal {
	if o.CouponID == nil {
		return decimal.Zero
	}
	return o.Total().Mul(o.CouponPercentage).Div(decimal.NewFromInt(100)).Round(2)
}

func (o Order) AmountDue() decimal.Decimal {
	return o.Total().Sub(o.Discount())
}

type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // current product price
	Quantity    int             `json:"quantity"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Review struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	UserID      int64     `json:"user_id"`
	UserName    string    `json:"user_name"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
}

// Staff is a back-office account.
type Staff struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"` // Store hashed password
}
