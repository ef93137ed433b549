package serverutils

import (
	"subshare-be/internal/pkg/apperror"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks struct tags and reports each failing field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	details := make(map[string]any)
	var validateErrs validator.ValidationErrors
	if errors.As(err, &validateErrs) {
		for _, fe := range validateErrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return apperror.WithError(err).
		WithHint("request validation failed").
		WithReportableDetails(details).
		Mark(apperror.ErrInvalidInput)
}
