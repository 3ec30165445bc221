package handlers

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// registerCustomValidations installs decimal-aware rules on gin's binding
// validator. The stock numeric rules compare struct fields, which does not
// work for decimal.Decimal, so money fields carry these tags instead.
func registerCustomValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not a *validator.Validate")
	}
	if err := v.RegisterValidation("decimalgt0", decimalGreaterThanZero); err != nil {
		return err
	}
	return v.RegisterValidation("decimalgte0", decimalNonNegative)
}

func decimalGreaterThanZero(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && d.IsPositive()
}

func decimalNonNegative(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && !d.IsNegative()
}
