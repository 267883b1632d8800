package errors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalid         = errors.New("invalid")
	ErrConflict        = errors.New("conflict")
	ErrTooMany         = errors.New("too many requests")
	ErrInternal        = errors.New("internal")
	ErrBusy            = errors.New("operation already in progress")
	ErrBackendDown     = errors.New("generation backend unavailable")
	ErrNotIndexed      = errors.New("subject has no indexed material")
	ErrUnsupportedFile = errors.New("unsupported file format")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
