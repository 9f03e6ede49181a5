package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"interview-scheduler/core/controller"
	"interview-scheduler/core/errors"

	"github.com/go-playground/validator/v10"
)

// Validator implements echo.Validator on top of go-playground/validator.
// Failures are returned as an ErrInvalidInput AppError listing every field.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewAppError(errors.ErrInvalidRequestData, "invalid request data", err)
	}

	details := make([]controller.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, controller.NewValidationError(fieldPath(fe), message(fe)))
	}
	return errors.NewAppError(errors.ErrInvalidInput, details[0].Field+": "+details[0].Message, err).
		WithDetails(details)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gtfield":
		return fmt.Sprintf("must be after %s", strings.ToLower(fe.Param()))
	case "timezone":
		return "must be an IANA timezone"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
