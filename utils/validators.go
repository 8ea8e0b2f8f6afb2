package utils

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// InitValidator registers the custom binding rules on gin's validator.
func InitValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterCustomValidators(v)
	}
}

func RegisterCustomValidators(v *validator.Validate) {
	_ = v.RegisterValidation("notblank", ValidateNotBlank)
}

// ValidateNotBlank rejects strings made only of whitespace.
func ValidateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ValidDocID rejects ids the frontend sends when it lost track of a record.
func ValidDocID(docID string) bool {
	docID = strings.TrimSpace(docID)
	return docID != "" && docID != "undefined" && docID != "null"
}
