package errors

import (
	"errors"
	"fmt"
)

// Common error types for the tourcat client
var (
	// Request errors, matched by api.Error via errors.Is
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")

	// Credential errors
	ErrRenewalRejected = errors.New("credential renewal rejected")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
