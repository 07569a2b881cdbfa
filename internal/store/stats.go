package store

import (
	"context"
	"database/sql"

	"github.com/alextreichler/tienda/internal/models"
)

type DashboardStats struct {
	TotalProducts     int
	TotalUsers        int
	TotalOrders       int
	OrdersByStatus    map[models.OrderStatus]int
	ProductUnitCounts []ProductUnitCount
}

type ProductUnitCount struct {
	ProductID  int64
	Name       string
	UnitsSold  int
	OrderCount int
	StockLeft  int
}

const topProductsLimit = 10

func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		OrdersByStatus: make(map[models.OrderStatus]int),
	}

	// 1. Totals
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM products", &stats.TotalProducts},
		{"SELECT COUNT(*) FROM users", &stats.TotalUsers},
		{"SELECT COUNT(*) FROM orders", &stats.TotalOrders},
	}
	for _, c := range counts {
		err := s.DB.QueryRowContext(ctx, c.query).Scan(c.dest)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
	}

	// 2. Orders by Status
	rows, err := s.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status models.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.OrdersByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 3. Units ordered per product
	productRows, err := s.DB.QueryContext(ctx, `
		SELECT p.id, p.name, COALESCE(SUM(l.quantity), 0) AS units, COUNT(DISTINCT l.order_id), p.stock
		FROM products p
		LEFT JOIN order_lines l ON p.id = l.product_id
		GROUP BY p.id
		ORDER BY units DESC, p.name
		LIMIT ?
	`, topProductsLimit)
	if err != nil {
		return nil, err
	}
	defer productRows.Close()
	for productRows.Next() {
		var pc ProductUnitCount
		if err := productRows.Scan(&pc.ProductID, &pc.Name, &pc.UnitsSold, &pc.OrderCount, &pc.StockLeft); err != nil {
			return nil, err
		}
		stats.ProductUnitCounts = append(stats.ProductUnitCounts, pc)
	}

	return stats, productRows.Err()
}
