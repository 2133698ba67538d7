package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom rules used by request bodies to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("taxid", validateTaxID)
}

// validateTaxID accepts a CPF (11 digits) or CNPJ (14 digits), with or without punctuation.
func validateTaxID(fl validator.FieldLevel) bool {
	digits := 0
	for _, r := range fl.Field().String() {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == '-' || r == '/':
		default:
			return false
		}
	}
	return digits == 11 || digits == 14
}
