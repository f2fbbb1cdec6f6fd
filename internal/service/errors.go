package service

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Error kinds returned by the service layer. Callers test them with errors.Is;
// the wrapped message carries the detail to render.
var (
	ErrDuplicate     = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrSelfReference = errors.New("cannot subscribe to yourself")
	ErrEmptyCart     = errors.New("shopping cart is empty")
	ErrValidation    = errors.New("validation failed")
	ErrPermission    = errors.New("permission denied")
	ErrAuthRequired  = errors.New("authentication required")
)

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}
