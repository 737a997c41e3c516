package controllers

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mood-map/api-go/models"
)

// RegisterValidators adds the custom binding tags used by the request types.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("mood", validateMood)
}

func validateMood(fl validator.FieldLevel) bool {
	return models.Mood(fl.Field().String()).Valid()
}
