package api

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"peakpt/workout-app/internal/domain"
)

var registerOnce sync.Once

// registerValidators adds the custom tags used by request DTOs to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("workoutdate", func(fl validator.FieldLevel) bool {
			return domain.ValidateDate(fl.Field().String()) == nil
		})
	})
}

// dateURI binds the :date path segment.
type dateURI struct {
	Date string `uri:"date" binding:"required,workoutdate"`
}
