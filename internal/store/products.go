package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/alextreichler/tienda/internal/models"
)

const productColumns = `p.id, p.name, p.description, p.price, p.category, p.size, p.color, p.stock, p.image_path, p.available, p.created_at`

func scanProduct(row rowScanner, extra ...interface{}) (*models.Product, error) {
	var p models.Product
	dest := []interface{}{&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Size, &p.Color, &p.Stock, &p.ImagePath, &p.Available, &p.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, description, price, category, size, color, stock, image_path, available, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := s.DB.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.Category, p.Size, p.Color, p.Stock, p.ImagePath, p.Available)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

// GetAllProducts is the back-office listing: every product, newest first.
func (s *Store) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+productColumns+` FROM products p ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetOrderableProducts lists available products with stock left, by name.
func (s *Store) GetOrderableProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.available = 1 AND p.stock > 0 ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(s.DB.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	return p, nil
}

// UpdateProduct saves every field except the image, which changes through UpdateProductImage.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, category = ?, size = ?, color = ?, stock = ?, available = ?
		WHERE id = ?
	`
	res, err := s.DB.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.Category, p.Size, p.Color, p.Stock, p.Available, p.ID)
	if err != nil {
		return err
	}
	return expectRow(res, "product", p.ID)
}

func (s *Store) UpdateProductImage(ctx context.Context, id int64, imagePath string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE products SET image_path = ? WHERE id = ?`, imagePath, id)
	if err != nil {
		return err
	}
	return expectRow(res, "product", id)
}

// DeleteProduct removes the product with its order lines and reviews.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "products", "product", id)
}

// GetCatalog lists what a shopper can buy: available products with stock,
// newest first, with their review aggregates. An empty category means all;
// an unknown one matches nothing.
func (s *Store) GetCatalog(ctx context.Context, category models.Category) ([]models.Product, error) {
	if category != "" && !models.ValidCategory(category) {
		return []models.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `, AVG(r.rating), COUNT(r.id)
		FROM products p
		LEFT JOIN reviews r ON r.product_id = p.id
		WHERE p.available = 1 AND p.stock > 0`
	var args []interface{}
	if category != "" {
		query += ` AND p.category = ?`
		args = append(args, category)
	}
	query += `
		GROUP BY p.id
		ORDER BY p.created_at DESC, p.id DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var avg sql.NullFloat64
		var count int
		p, err := scanProduct(rows, &avg, &count)
		if err != nil {
			return nil, err
		}
		p.AverageRating = roundedRating(avg)
		p.ReviewCount = count
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetProductWithRating loads one product with its review aggregates.
func (s *Store) GetProductWithRating(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	err = s.DB.QueryRowContext(ctx, `SELECT AVG(rating), COUNT(id) FROM reviews WHERE product_id = ?`, id).Scan(&avg, &p.ReviewCount)
	if err != nil {
		return nil, err
	}
	p.AverageRating = roundedRating(avg)
	return p, nil
}

// roundedRating is nil without reviews, else the mean to one decimal place.
// Exact halves go to the even digit (4.25 -> 4.2, 4.75 -> 4.8).
func roundedRating(avg sql.NullFloat64) *float64 {
	if !avg.Valid {
		return nil
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(avg.Float64, 'f', 1, 64), 64)
	if err != nil {
		return nil
	}
	return &r
}
