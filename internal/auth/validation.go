package auth

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// PasswordTag is the struct-tag name under which IsPasswordAllowed is
// registered, e.g. `binding:"required,password"`.
const PasswordTag = "password"

// ErrNoValidator is returned when there is no validator engine to register on.
var ErrNoValidator = errors.New("auth: validator engine is not a *validator.Validate")

// RegisterValidation installs the password rule on a go-playground validator.
//
// Pass gin's engine with binding.Validator.Engine(); any value that is not a
// *validator.Validate yields ErrNoValidator.
func RegisterValidation(engine any) error {
	v, ok := engine.(*validator.Validate)
	if !ok || v == nil {
		return ErrNoValidator
	}
	return v.RegisterValidation(PasswordTag, func(fl validator.FieldLevel) bool {
		p, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return IsPasswordAllowed(p)
	})
}
