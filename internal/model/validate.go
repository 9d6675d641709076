package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

// Messages shown next to a rejected field.
const (
	MsgRequired = "Ce champ est obligatoire"
	MsgNumber   = "Doit être un nombre"
)

// FieldError reports one invalid form field, named as on the wire.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks the validate tags of v and returns every failure at once.
func Validate(v interface{}) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var result *multierror.Error
	for _, fe := range verrs {
		result = multierror.Append(result, &FieldError{Field: fe.Field(), Message: message(fe)})
	}
	result.ErrorFormat = formatFieldErrors
	return result.ErrorOrNil()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "number", "numeric":
		return MsgNumber
	default:
		return fmt.Sprintf("invalide (%s)", fe.Tag())
	}
}

func formatFieldErrors(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "; ")
}

// FieldErrors extracts the per-field failures from a Validate error.
func FieldErrors(err error) []*FieldError {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		var fe *FieldError
		if errors.As(err, &fe) {
			return []*FieldError{fe}
		}
		return nil
	}
	var out []*FieldError
	for _, e := range merr.Errors {
		var fe *FieldError
		if errors.As(e, &fe) {
			out = append(out, fe)
		}
	}
	return out
}
