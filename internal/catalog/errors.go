package catalog

import (
	"errors"
	"fmt"

	"movie-catalog/internal/store"
)

// Виды ошибок сервиса каталога. Проверяются через errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidAction = errors.New("invalid reaction action")
	ErrValidation    = errors.New("validation failed")
	ErrPersistence   = errors.New("persistence failure")
)

// classify оборачивает ошибку хранилища в один из видов ошибок сервиса
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrValidation), errors.Is(err, ErrPersistence):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, store.ErrMovieNotFound), errors.Is(err, store.ErrUserNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}
}
