package store

import (
	"context"

	"github.com/alextreichler/tienda/internal/models"
)

func (s *Store) CreatePaymentMethod(ctx context.Context, m *models.PaymentMethod) error {
	res, err := s.DB.ExecContext(ctx, `INSERT INTO payment_methods (name, kind, active) VALUES (?, ?, ?)`, m.Name, m.Kind, m.Active)
	if err != nil {
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetAllPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return s.queryPaymentMethods(ctx, `SELECT id, name, kind, active FROM payment_methods ORDER BY name, id`)
}

func (s *Store) GetActivePaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return s.queryPaymentMethods(ctx, `SELECT id, name, kind, active FROM payment_methods WHERE active = 1 ORDER BY name, id`)
}

func (s *Store) queryPaymentMethods(ctx context.Context, query string) ([]models.PaymentMethod, error) {
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []models.PaymentMethod
	for rows.Next() {
		var m models.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Kind, &m.Active); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (s *Store) GetPaymentMethodByID(ctx context.Context, id int64) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	err := s.DB.QueryRowContext(ctx, `SELECT id, name, kind, active FROM payment_methods WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Kind, &m.Active)
	if err != nil {
		return nil, notFoundOr(err, "payment method", id)
	}
	return &m, nil
}

func (s *Store) UpdatePaymentMethod(ctx context.Context, m *models.PaymentMethod) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE payment_methods SET name = ?, kind = ?, active = ? WHERE id = ?`, m.Name, m.Kind, m.Active, m.ID)
	if err != nil {
		return err
	}
	return expectRow(res, "payment method", m.ID)
}

// DeletePaymentMethod removes the method; orders that used it keep existing without one.
func (s *Store) DeletePaymentMethod(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "payment_methods", "payment method", id)
}
