package routes

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"joinworks/internal/database"
	"joinworks/internal/dates"
)

// RegisterValidators installs custom binding validations on gin's validator
// engine. Call once before routes are registered.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("daykey", func(fl validator.FieldLevel) bool {
		return dates.Valid(fl.Field().String())
	})
	v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return database.ValidTaskStatus(fl.Field().String())
	})
	v.RegisterValidation("taskpriority", func(fl validator.FieldLevel) bool {
		return database.ValidTaskPriority(fl.Field().String())
	})
	v.RegisterValidation("tasktype", func(fl validator.FieldLevel) bool {
		return database.ValidTaskType(fl.Field().String())
	})
	v.RegisterValidation("rfipriority", func(fl validator.FieldLevel) bool {
		return database.ValidRFIPriority(fl.Field().String())
	})
}
