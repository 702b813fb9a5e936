package errors

import "github.com/go-faster/errors"

// New redirects to the errors.New method.
func New(text string) error {
	return errors.New(text)
}

// Is redirects to the errors.Is method.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As redirects to the errors.As method.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrap redirects to the errors.Wrap method.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf redirects to the errors.Wrapf method.
func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

// Errorf redirects to the errors.Errorf method.
func Errorf(format string, args ...any) error {
	return errors.Errorf(format, args...)
}
