// Package apperr defines the error taxonomy shared by the mapping, filter,
// service and transport layers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("configuration error")
	ErrUpstream      = errors.New("upstream error")

	// ErrNoFieldsToUpdate is returned when a partial update carries no fields.
	ErrNoFieldsToUpdate = fmt.Errorf("%w: no fields to update", ErrValidation)
)

// MissingRequiredFieldError reports a required field absent on create.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingRequiredFieldError) Is(target error) bool { return target == ErrValidation }

// UnsupportedTypeError reports a value whose shape does not match the
// declared field type.
type UnsupportedTypeError struct {
	Field string
	Type  string
	Value any
}

func (e *UnsupportedTypeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("value %v (%T) is not valid for type %s", e.Value, e.Value, e.Type)
	}
	return fmt.Sprintf("field %q: value %v (%T) is not valid for type %s", e.Field, e.Value, e.Value, e.Type)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrValidation }

// InvalidFilterCombinationError reports mutually exclusive query parameters
// supplied together.
type InvalidFilterCombinationError struct {
	Params []string
}

func (e *InvalidFilterCombinationError) Error() string {
	return fmt.Sprintf("query parameters cannot be combined: %s", strings.Join(e.Params, ", "))
}

func (e *InvalidFilterCombinationError) Is(target error) bool { return target == ErrValidation }

// ConfigurationError reports a missing external identifier for a hub.
type ConfigurationError struct {
	Hub string
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("hub %q: %s is not configured", e.Hub, e.Key)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// UpstreamError wraps a failed call to the external store.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Validation wraps err so that it matches ErrValidation.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
