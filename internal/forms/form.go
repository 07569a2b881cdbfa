// Package forms turns submitted form values into typed inputs and collects
// field-level errors for re-rendering.
package forms

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// Errors maps a form field name to the first problem found with it.
type Errors map[string]string

// Add records message for field unless the field already has one.
func (e Errors) Add(field, message string) {
	if _, ok := e[field]; !ok {
		e[field] = message
	}
}

func (e Errors) Get(field string) string {
	return e[field]
}

// Form wraps submitted values; the typed getters record conversion
// failures in Errors and return the zero value.
type Form struct {
	Values url.Values
	Errors Errors
}

func New(values url.Values) *Form {
	return &Form{Values: values, Errors: Errors{}}
}

func (f *Form) Get(field string) string {
	return strings.TrimSpace(f.Values.Get(field))
}

// Checkbox follows browser semantics: an unchecked box is simply absent.
func (f *Form) Checkbox(field string) bool {
	switch strings.ToLower(f.Get(field)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// Int parses field as an integer, returning fallback when it is empty.
func (f *Form) Int(field string, fallback int) int {
	raw := f.Get(field)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		f.Errors.Add(field, "Enter a whole number.")
		return 0
	}
	return n
}

// ID parses a required positive identifier, such as a selected user.
func (f *Form) ID(field string) int64 {
	raw := f.Get(field)
	if raw == "" {
		f.Errors.Add(field, "This field is required.")
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		f.Errors.Add(field, "Select a valid choice.")
		return 0
	}
	return id
}

// OptionalID is like ID but an empty value yields nil.
func (f *Form) OptionalID(field string) *int64 {
	if f.Get(field) == "" {
		return nil
	}
	id := f.ID(field)
	if id == 0 {
		return nil
	}
	return &id
}

// IDs parses every value submitted under field, keeping submission order.
func (f *Form) IDs(field string) []int64 {
	var ids []int64
	for _, raw := range f.Values[field] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			f.Errors.Add(field, "Select a valid choice.")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (f *Form) Decimal(field string) decimal.Decimal {
	raw := f.Get(field)
	if raw == "" {
		f.Errors.Add(field, "This field is required.")
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		f.Errors.Add(field, "Enter a number.")
		return decimal.Zero
	}
	return d
}

// OptionalDate parses a YYYY-MM-DD value; empty means no date.
func (f *Form) OptionalDate(field string) *time.Time {
	raw := f.Get(field)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		f.Errors.Add(field, "Enter a valid date (YYYY-MM-DD).")
		return nil
	}
	return &t
}
