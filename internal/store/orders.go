package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alextreichler/tienda/internal/models"
	"github.com/shopspring/decimal"
)

// LineRequest asks for Quantity units of one product.
type LineRequest struct {
	ProductID int64
	Quantity  int
}

// OrderRequest is everything needed to place an order. PaymentMethodID is
// optional and CouponCode may be empty.
type OrderRequest struct {
	UserID          int64
	Address         string
	PaymentMethodID *int64
	CouponCode      string
	Lines           []LineRequest
}

var errEmptyOrder = errors.New("an order needs at least one product")

// PlaceOrder creates the order header, its lines and every stock decrement in
// one transaction. Lines are reserved in the given order; the first line that
// asks for more than the product has left aborts the whole order with an
// InsufficientStockError and nothing, stock included, is changed.
func (s *Store) PlaceOrder(ctx context.Context, req OrderRequest) (*models.Order, error) {
	if len(req.Lines) == 0 {
		return nil, errEmptyOrder
	}

	var orderID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, req.UserID).Scan(&exists); err != nil {
			return notFoundOr(err, "user", req.UserID)
		}

		if req.PaymentMethodID != nil {
			if err := tx.QueryRowContext(ctx, `SELECT 1 FROM payment_methods WHERE id = ?`, *req.PaymentMethodID).Scan(&exists); err != nil {
				return notFoundOr(err, "payment method", *req.PaymentMethodID)
			}
		}

		var couponID *int64
		if req.CouponCode != "" {
			c, err := getActiveCoupon(ctx, tx, req.CouponCode)
			if err != nil {
				return err
			}
			couponID = &c.ID
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders (status, address, created_at, user_id, payment_method_id, coupon_id)
			VALUES (?, ?, CURRENT_TIMESTAMP, ?, ?, ?)`,
			models.StatusPending, req.Address, req.UserID, req.PaymentMethodID, couponID)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if orderID, err = res.LastInsertId(); err != nil {
			return err
		}

		for _, line := range req.Lines {
			if err := reserveStock(ctx, tx, line); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO order_lines (order_id, product_id, quantity) VALUES (?, ?, ?)`,
				orderID, line.ProductID, line.Quantity)
			if err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrderByID(ctx, orderID)
}

// reserveStock takes line.Quantity units off the product. The decrement is
// conditional on enough stock being left so it can never drive stock negative.
func reserveStock(ctx context.Context, tx *sql.Tx, line LineRequest) error {
	var name string
	var stock int
	err := tx.QueryRowContext(ctx, `SELECT name, stock FROM products WHERE id = ?`, line.ProductID).Scan(&name, &stock)
	if err != nil {
		return notFoundOr(err, "product", line.ProductID)
	}

	res, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
		line.Quantity, line.ProductID, line.Quantity)
	if err != nil {
		return fmt.Errorf("reserve stock for product %d: %w", line.ProductID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &InsufficientStockError{
			ProductID:   line.ProductID,
			ProductName: name,
			Requested:   line.Quantity,
			Available:   stock,
		}
	}
	return nil
}

const orderHeaderQuery = `
	SELECT o.id, o.status, o.address, o.created_at, o.user_id, u.name,
	       o.payment_method_id, COALESCE(pm.name, ''),
	       o.coupon_id, COALESCE(c.code, ''), c.percentage
	FROM orders o
	JOIN users u ON u.id = o.user_id
	LEFT JOIN payment_methods pm ON pm.id = o.payment_method_id
	LEFT JOIN coupons c ON c.id = o.coupon_id`

func scanOrderHeader(row rowScanner) (*models.Order, error) {
	var o models.Order
	var paymentID, couponID sql.NullInt64
	var percentage decimal.NullDecimal
	err := row.Scan(&o.ID, &o.Status, &o.Address, &o.CreatedAt, &o.UserID, &o.UserName,
		&paymentID, &o.PaymentMethodName, &couponID, &o.CouponCode, &percentage)
	if err != nil {
		return nil, err
	}
	if paymentID.Valid {
		o.PaymentMethodID = &paymentID.Int64
	}
	if couponID.Valid {
		o.CouponID = &couponID.Int64
		o.CouponPercentage = percentage.Decimal
	}
	return &o, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrderHeader(s.DB.QueryRowContext(ctx, orderHeaderQuery+` WHERE o.id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "order", id)
	}
	if err := s.attachLines(ctx, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// GetAllOrders returns one page of orders, newest first, with their lines.
func (s *Store) GetAllOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	rows, err := s.DB.QueryContext(ctx, orderHeaderQuery+` ORDER BY o.created_at DESC, o.id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrderHeader(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachLines(ctx, orders); err != nil {
		return nil, err
	}

	result := make([]models.Order, len(orders))
	for i, o := range orders {
		result[i] = *o
	}
	return result, nil
}

func (s *Store) GetTotalOrdersCount(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// attachLines loads the lines of all given orders in one query.
func (s *Store) attachLines(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := fmt.Sprintf(`
		SELECT l.id, l.order_id, l.product_id, p.name, p.price, l.quantity
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.order_id IN (%s)
		ORDER BY l.id`, placeholders(len(ids)))
	rows, err := s.DB.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.UnitPrice, &l.Quantity); err != nil {
			return err
		}
		o := byID[l.OrderID]
		o.Lines = append(o.Lines, l)
	}
	return rows.Err()
}

// UpdateOrderStatus sets any of the known statuses regardless of the current one.
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	return expectRow(res, "order", id)
}
