// Package apperr holds the error kinds shared by the order, payment and
// catalog packages. Callers classify with errors.Is against the Err* kinds.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrBusinessRule = errors.New("business rule violated")
	ErrForbidden    = errors.New("forbidden")
	ErrStock        = errors.New("insufficient stock")
)

// Error carries a human readable message and unwraps to its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error { return newf(ErrNotFound, format, args...) }

func Validation(format string, args ...any) error { return newf(ErrValidation, format, args...) }

func BusinessRule(format string, args ...any) error { return newf(ErrBusinessRule, format, args...) }

func Forbidden(format string, args ...any) error { return newf(ErrForbidden, format, args...) }

func Stock(format string, args ...any) error { return newf(ErrStock, format, args...) }

// Kind returns the sentinel kind of err, or nil for infrastructure errors.
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrValidation, ErrBusinessRule, ErrForbidden, ErrStock} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
