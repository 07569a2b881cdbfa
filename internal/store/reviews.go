package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alextreichler/tienda/internal/models"
)

const reviewQuery = `
	SELECT r.id, r.product_id, p.name, r.user_id, u.name, r.rating, r.comment, r.created_at
	FROM reviews r
	JOIN products p ON p.id = r.product_id
	JOIN users u ON u.id = r.user_id`

func (s *Store) queryReviews(ctx context.Context, query string, args ...interface{}) ([]models.Review, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.ProductName, &r.UserID, &r.UserName, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *Store) GetAllReviews(ctx context.Context) ([]models.Review, error) {
	return s.queryReviews(ctx, reviewQuery+` ORDER BY r.created_at DESC, r.id DESC`)
}

func (s *Store) GetReviewsForProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	return s.queryReviews(ctx, reviewQuery+` WHERE r.product_id = ? ORDER BY r.created_at DESC, r.id DESC`, productID)
}

func (s *Store) GetReviewByID(ctx context.Context, id int64) (*models.Review, error) {
	reviews, err := s.queryReviews(ctx, reviewQuery+` WHERE r.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, notFound("review", id)
	}
	return &reviews[0], nil
}

// CreateReview stores a review after checking that the user and product
// exist and that the user has not reviewed the product yet.
func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, r.ProductID).Scan(&exists); err != nil {
			return notFoundOr(err, "product", r.ProductID)
		}
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, r.UserID).Scan(&exists); err != nil {
			return notFoundOr(err, "user", r.UserID)
		}

		err := tx.QueryRowContext(ctx, `SELECT 1 FROM reviews WHERE product_id = ? AND user_id = ?`, r.ProductID, r.UserID).Scan(&exists)
		if err == nil {
			return ErrDuplicateReview
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO reviews (product_id, user_id, rating, comment, created_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
			r.ProductID, r.UserID, r.Rating, r.Comment)
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		if err != nil {
			return err
		}
		r.ID, err = res.LastInsertId()
		return err
	})
}

func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "reviews", "review", id)
}
