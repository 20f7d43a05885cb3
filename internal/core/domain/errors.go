package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUploadsDisabled    = errors.New("uploads disabled")
	ErrObjectNotFound     = errors.New("object not found")
	ErrOracleUnavailable  = errors.New("classification oracle unavailable")
	ErrAnswerUnrecognized = errors.New("classification answer unrecognized")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
