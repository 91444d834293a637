package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxReleaseYearAhead - на сколько лет вперед допускается год выхода
const MaxReleaseYearAhead = 5

// NewValidator создает валидатор с правилами, специфичными для каталога.
func NewValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("releaseyear", validateReleaseYear); err != nil {
		return nil, fmt.Errorf("failed to register releaseyear validation: %w", err)
	}
	return v, nil
}

func validateReleaseYear(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(time.Now().Year()+MaxReleaseYearAhead)
}
