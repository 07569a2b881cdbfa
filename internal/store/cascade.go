package store

import (
	"context"
	"database/sql"
	"fmt"
)

type onDelete int

const (
	cascade onDelete = iota
	setNull
)

type relation struct {
	parent string
	child  string
	column string
	action onDelete
}

// relations is the delete policy for every foreign key in the schema.
var relations = []relation{
	{parent: "users", child: "orders", column: "user_id", action: cascade},
	{parent: "users", child: "reviews", column: "user_id", action: cascade},
	{parent: "products", child: "order_lines", column: "product_id", action: cascade},
	{parent: "products", child: "reviews", column: "product_id", action: cascade},
	{parent: "orders", child: "order_lines", column: "order_id", action: cascade},
	{parent: "payment_methods", child: "orders", column: "payment_method_id", action: setNull},
	{parent: "coupons", child: "orders", column: "coupon_id", action: setNull},
}

// deleteRows deletes ids from table after applying the policy to every
// dependent table, depth first. Table and column names only ever come from
// the relations table.
func deleteRows(ctx context.Context, tx *sql.Tx, table string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	in := placeholders(len(ids))
	args := int64Args(ids)

	for _, rel := range relations {
		if rel.parent != table {
			continue
		}

		switch rel.action {
		case setNull:
			query := fmt.Sprintf(`UPDATE %s SET %s = NULL WHERE %s IN (%s)`, rel.child, rel.column, rel.column, in)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("detach %s from %s: %w", rel.child, table, err)
			}
		case cascade:
			query := fmt.Sprintf(`SELECT id FROM %s WHERE %s IN (%s)`, rel.child, rel.column, in)
			childIDs, err := selectIDs(ctx, tx, query, args...)
			if err != nil {
				return fmt.Errorf("find %s of %s: %w", rel.child, table, err)
			}
			if err := deleteRows(ctx, tx, rel.child, childIDs); err != nil {
				return err
			}
		}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id IN (%s)`, table, in)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// deleteByID deletes one row of table with its dependents, reporting a
// NotFoundError when the row does not exist.
func (s *Store) deleteByID(ctx context.Context, table, entity string, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ?`, table), id).Scan(&exists)
		if err != nil {
			return notFoundOr(err, entity, id)
		}
		return deleteRows(ctx, tx, table, []int64{id})
	})
}

func selectIDs(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
