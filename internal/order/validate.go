package order

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError carries every violated field so a caller can fix the
// whole request in one round trip.
type ValidationError struct {
	Fields []FieldError
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field)
	}
	return "invalid order: " + strings.Join(parts, ", ")
}

// Details renders the violations for a 400 response body.
func (e *ValidationError) Details() []FieldError {
	return e.Fields
}

// Validate checks an order before it is accepted: required identity
// fields, a syntactically valid email, a non-empty item list and
// non-negative money. It returns nil or a *ValidationError listing all
// violations; it never stops at the first one.
func Validate(ord Order) error {
	err := validate.Struct(ord)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range invalid {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   fieldName(fe),
			Message: fieldMessage(fe),
		})
	}
	return verr
}

// fieldName turns validator's namespace ("Order.Customer.Email") into
// the JSON-ish path callers sent ("customer.email").
func fieldName(fe validator.FieldError) string {
	ns := strings.TrimPrefix(fe.Namespace(), "Order.")
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must contain at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return "is invalid"
	}
}
