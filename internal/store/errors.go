package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate reports a unique constraint violation (email, coupon code, username).
	ErrDuplicate = errors.New("already exists")
	// ErrDuplicateReview is returned when a user reviews the same product twice.
	ErrDuplicateReview = errors.New("this user has already reviewed this product")
)

type NotFoundError struct {
	Entity string
	Key    interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(entity string, key interface{}) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// InsufficientStockError is returned when an order line asks for more units
// than the product has left. Available is the stock at the time of the check.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Only %d units available.", e.ProductName, e.Available)
}

// notFoundOr maps sql.ErrNoRows to a NotFoundError and wraps anything else.
func notFoundOr(err error, entity string, key interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(entity, key)
	}
	return fmt.Errorf("get %s %v: %w", entity, key, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// uniqueOr turns a unique constraint violation on field into ErrDuplicate.
func uniqueOr(err error, field string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %w", field, ErrDuplicate)
	}
	return err
}
