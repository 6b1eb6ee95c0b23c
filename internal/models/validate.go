package models

import (
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that understands the order_status tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	return v
}

// ValidationMessages flattens validator errors into field -> reason, the shape
// returned to API callers.
func ValidationMessages(err error) map[string]string {
	out := make(map[string]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["_"] = err.Error()
		return out
	}
	for _, e := range verrs {
		out[e.Field()] = "failed on the '" + e.Tag() + "' tag"
	}
	return out
}
