package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"levelcheck/internal/enrollment"
	apierrors "levelcheck/internal/errors"
)

// ReportRequest is the non-file part of a report request.
type ReportRequest struct {
	Mode   string `json:"report" validate:"required,reportmode"`
	Today  string `json:"today" validate:"omitempty,isodate"`
	Format string `json:"format" validate:"omitempty,oneof=json csv"`
}

// RequestValidator validates request structs with go-playground/validator.
type RequestValidator struct {
	validator *validator.Validate
}

// NewRequestValidator registers the report-specific rules.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("reportmode", isReportMode)
	v.RegisterValidation("isodate", isISODate)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RequestValidator{validator: v}
}

// ValidateStruct returns an *apierrors.APIError listing every failed field.
func (rv *RequestValidator) ValidateStruct(v interface{}) error {
	err := rv.validator.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(err.Param(), " ", ", "))
	case "reportmode":
		modes := make([]string, len(enrollment.Modes))
		for i, m := range enrollment.Modes {
			modes[i] = string(m)
		}
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(modes, ", "))
	case "isodate":
		return fmt.Sprintf("%s must be a calendar date in YYYY-MM-DD form", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isReportMode(fl validator.FieldLevel) bool {
	_, err := enrollment.ParseMode(fl.Field().String())
	return err == nil
}

func isISODate(fl validator.FieldLevel) bool {
	_, err := enrollment.ParseISODate(fl.Field().String())
	return err == nil
}
