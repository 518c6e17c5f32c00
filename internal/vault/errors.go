package vault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds surfaced by the facade. None of them distinguishes a missing
// record from one owned by someone else.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrNotFound        = errors.New("credential not found")
	ErrValidation      = errors.New("validation failed")
	ErrCipher          = errors.New("secret could not be processed")
)

// ValidationError carries field-level detail. errors.Is(err, ErrValidation)
// holds for every *ValidationError.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
