package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"storefront/internal/domain"
	"storefront/internal/dto"
	apperrors "storefront/internal/errors"
)

const (
	InvalidBodyMessage  = "Invalid request data"
	InvalidQueryMessage = "Invalid query parameters"

	maxBodyBytes = 1 << 20
)

type Validator struct {
	validate *validatorv10.Validate
}

// New returns a validator that reports fields by their JSON names and checks
// that each order line total equals price times quantity.
func New() *Validator {
	v := validatorv10.New(validatorv10.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterStructValidation(orderItemStructValidation, dto.OrderItemRequest{})

	return &Validator{validate: v}
}

func orderItemStructValidation(sl validatorv10.StructLevel) {
	item := sl.Current().Interface().(dto.OrderItemRequest)

	line := domain.OrderItem{Price: item.Price, Quantity: item.Quantity, Total: item.Total}
	if !line.HasConsistentTotal() {
		sl.ReportError(item.Total, "total", "Total", "itemtotal", "")
	}
}

// Struct validates s and converts failures into a ValidationError with one
// detail per offending field.
func (v *Validator) Struct(s any) error {
	return v.structWithMessage(s, InvalidBodyMessage)
}

func (v *Validator) structWithMessage(s any, message string) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validatorv10.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating %T: %w", s, err)
	}

	details := make([]apperrors.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apperrors.ValidationDetail{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}

	return apperrors.NewValidationError(message, details...)
}

// DecodeJSON reads the request body into out and validates it. An empty body
// decodes as an empty object.
func (v *Validator) DecodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError(InvalidBodyMessage, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}

	return v.Struct(out)
}

func fieldPath(fe validatorv10.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validatorv10.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Invalid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "gt":
		if fe.Param() == "0" {
			return fmt.Sprintf("%s must be positive", field)
		}
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, fe.Param(), sizeUnit(fe.Kind()))
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, fe.Param(), sizeUnit(fe.Kind()))
	case "itemtotal":
		return "total must equal price multiplied by quantity"
	}

	return fmt.Sprintf("%s is invalid", field)
}

func sizeUnit(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	}
	return ""
}
