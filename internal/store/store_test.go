package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alextreichler/tienda/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a migrated database file under t.TempDir().
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "tienda.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	u := &models.User{
		Name:    "Ana " + email,
		Email:   email,
		Phone:   "5550001",
		Address: "Calle 1",
		Role:    models.RoleCustomer,
		Active:  true,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, s *Store, name string, category models.Category, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Category:    category,
		Size:        "M",
		Color:       "negro",
		Stock:       stock,
		Available:   true,
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))

	var applied int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	require.Equal(t, 3, applied)
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "?", placeholders(1))
	require.Equal(t, "?, ?, ?", placeholders(3))
}
