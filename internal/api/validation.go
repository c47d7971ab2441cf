package api

import (
	"github.com/bcnelson/spark/pkg/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// registerValidators adds the domain tags used in request binding rules.
func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	rules := map[string]validator.Func{
		"activity_status": func(fl validator.FieldLevel) bool {
			_, err := models.ParseActivityStatus(fl.Field().String())
			return err == nil
		},
		"polarity": func(fl validator.FieldLevel) bool {
			_, err := models.ParsePolarity(fl.Field().String())
			return err == nil
		},
		"feedback_kind": func(fl validator.FieldLevel) bool {
			_, err := models.ParseFeedbackKind(fl.Field().String())
			return err == nil
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
