package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alextreichler/tienda/internal/models"
)

const dateLayout = "2006-01-02"

func scanCoupon(row rowScanner) (*models.Coupon, error) {
	var c models.Coupon
	var expires sql.NullString
	if err := row.Scan(&c.ID, &c.Code, &c.Percentage, &expires, &c.Active); err != nil {
		return nil, err
	}
	if expires.Valid && expires.String != "" {
		t, err := time.Parse(dateLayout, expires.String)
		if err != nil {
			return nil, fmt.Errorf("coupon %d expiration %q: %w", c.ID, expires.String, err)
		}
		c.ExpiresOn = &t
	}
	return &c, nil
}

func dateArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func (s *Store) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	res, err := s.DB.ExecContext(ctx, `INSERT INTO coupons (code, percentage, expires_on, active) VALUES (?, ?, ?, ?)`,
		c.Code, c.Percentage, dateArg(c.ExpiresOn), c.Active)
	if err != nil {
		return uniqueOr(err, "code")
	}
	c.ID, err = res.LastInsertId()
	return err
}

// GetAllCoupons lists coupons by expiration date, latest first; coupons that
// never expire come last.
func (s *Store) GetAllCoupons(ctx context.Context) ([]models.Coupon, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, code, percentage, expires_on, active
		FROM coupons
		ORDER BY expires_on IS NULL, expires_on DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

func (s *Store) GetCouponByID(ctx context.Context, id int64) (*models.Coupon, error) {
	c, err := scanCoupon(s.DB.QueryRowContext(ctx, `SELECT id, code, percentage, expires_on, active FROM coupons WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "coupon", id)
	}
	return c, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getActiveCoupon only sees active coupons; an inactive code is reported as not found.
func getActiveCoupon(ctx context.Context, q queryRower, code string) (*models.Coupon, error) {
	c, err := scanCoupon(q.QueryRowContext(ctx, `SELECT id, code, percentage, expires_on, active FROM coupons WHERE code = ? AND active = 1`, code))
	if err != nil {
		return nil, notFoundOr(err, "coupon", code)
	}
	return c, nil
}

func (s *Store) UpdateCoupon(ctx context.Context, c *models.Coupon) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE coupons SET code = ?, percentage = ?, expires_on = ?, active = ? WHERE id = ?`,
		c.Code, c.Percentage, dateArg(c.ExpiresOn), c.Active, c.ID)
	if err != nil {
		return uniqueOr(err, "code")
	}
	return expectRow(res, "coupon", c.ID)
}

// DeleteCoupon removes the coupon; orders that used it keep existing without one.
func (s *Store) DeleteCoupon(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "coupons", "coupon", id)
}
