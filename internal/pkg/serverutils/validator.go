package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"rag-chat-be/internal/apperr"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and converts failures into an
// invalid input error carrying the offending fields.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.InvalidInput(err.Error())
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return apperr.InvalidInput("validation failed: " + strings.Join(fields, ", "))
}
