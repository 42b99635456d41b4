package service

import (
	"errors"
	"fmt"

	"pkg.mon.icu/social/internal/storage"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrBadRequest = errors.New("bad request")
	ErrValidation = errors.New("validation failed")
)

// Error carries a human readable detail while matching its kind through errors.Is.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// orNotFound replaces storage.ErrNotFound with a NotFound error carrying the given detail.
func orNotFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, storage.ErrNotFound) {
		return newError(ErrNotFound, format, args...)
	}
	return err
}

func orConflict(err error, format string, args ...interface{}) error {
	if errors.Is(err, storage.ErrDuplicate) {
		return newError(ErrConflict, format, args...)
	}
	return err
}
