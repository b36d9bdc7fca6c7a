package service

import (
	"strings"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkInput runs struct validation and converts the first violation into
// the typed ValidationError the rest of the system speaks.
func checkInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		first := verrs[0]
		return &model.ValidationError{
			Field:  strings.ToLower(first.Field()),
			Reason: "failed on rule " + first.Tag(),
		}
	}
	return &model.ValidationError{Reason: err.Error()}
}
