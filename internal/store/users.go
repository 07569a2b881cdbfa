package store

import (
	"context"

	"github.com/alextreichler/tienda/internal/models"
)

const userColumns = `id, name, email, phone, address, role, active, registered_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.Role, &u.Active, &u.RegisteredAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, phone, address, role, active, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := s.DB.ExecContext(ctx, query, user.Name, user.Email, user.Phone, user.Address, user.Role, user.Active)
	if err != nil {
		return uniqueOr(err, "email")
	}
	user.ID, err = res.LastInsertId()
	return err
}

// GetAllUsers lists users, newest registrations first.
func (s *Store) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY registered_at DESC, id DESC`)
}

// GetActiveCustomers lists the users offered on the order and review forms.
func (s *Store) GetActiveCustomers(ctx context.Context) ([]models.User, error) {
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE active = 1 AND role = ? ORDER BY name`, models.RoleCustomer)
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = ?, email = ?, phone = ?, address = ?, role = ?, active = ?
		WHERE id = ?
	`
	res, err := s.DB.ExecContext(ctx, query, user.Name, user.Email, user.Phone, user.Address, user.Role, user.Active, user.ID)
	if err != nil {
		return uniqueOr(err, "email")
	}
	return expectRow(res, "user", user.ID)
}

// DeleteUser removes the user together with their orders and reviews.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "users", "user", id)
}
