// Package validation provides request validation using go-playground/validator
// v10. It keeps a single validator instance, registers the "isodate" tag for
// YYYY-MM-DD strings and reports failures by their JSON field names.
//
// Example usage:
//
//	type createRequest struct {
//	    Date  string `json:"date" validate:"required,isodate"`
//	    Count *int   `json:"count" validate:"required,min=0"`
//	}
//
//	if err := validation.Struct(&req); err != nil {
//	    httpx.WriteErrorCode(w, http.StatusBadRequest, "invalid_request", err)
//	    return
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/HatiCode/followcast/pkg/storage"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single failed rule.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e FieldError) message() string {
	switch e.Tag {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param
	case "max":
		return "must be at most " + e.Param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(e.Param, " ", ", ")
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "failed " + e.Tag + " validation"
	}
}

// Error collects every failed rule of one struct.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + " " + f.message()
	}
	return strings.Join(msgs, "; ")
}

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		if err := validate.RegisterValidation("isodate", isoDate); err != nil {
			panic(fmt.Sprintf("register isodate validator: %v", err))
		}
	})
	return validate
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := storage.ParseDate(fl.Field().String())
	return err == nil
}

// Struct validates s. It returns nil or an *Error.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &Error{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
	}
	return out
}
