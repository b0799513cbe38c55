package utils

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// ValidateStruct runs the shared validator instance against a request
// payload struct; callers translate the error into a 400 response.
func ValidateStruct(payload interface{}) error {
	return validate.Struct(payload)
}
