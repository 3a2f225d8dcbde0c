// ================== pkg/errors/errors.go =================
package errors

import "errors"

// Sentinels shared across features. Wrap them with %w and test with errors.Is.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("resource already exists")
	ErrValidation = errors.New("validation failed")
	// ErrConflict means the record changed state under the caller
	ErrConflict = errors.New("state conflict")
)
