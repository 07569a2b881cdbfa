package store

import (
	"context"
	"database/sql"

	"github.com/alextreichler/tienda/internal/models"
)

// GetStaffByUsername returns nil, nil when no account has that username.
func (s *Store) GetStaffByUsername(ctx context.Context, username string) (*models.Staff, error) {
	query := `SELECT id, username, password FROM staff WHERE username = ?`
	row := s.DB.QueryRowContext(ctx, query, username)

	var staff models.Staff
	if err := row.Scan(&staff.ID, &staff.Username, &staff.Password); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// CreateStaff is mainly for seeding the first back-office account from the CLI.
func (s *Store) CreateStaff(ctx context.Context, username, hashedPassword string) error {
	query := `INSERT INTO staff (username, password) VALUES (?, ?)`
	_, err := s.DB.ExecContext(ctx, query, username, hashedPassword)
	return uniqueOr(err, "username")
}
