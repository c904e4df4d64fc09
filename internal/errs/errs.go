// Package errs holds the error taxonomy shared by the image lifecycle,
// the services and the HTTP layer.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched by every NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// FieldError is a single field-level validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field problem found before any I/O.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add records a problem for field.
func (e *ValidationError) Add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Merge appends the fields of other, if any.
func (e *ValidationError) Merge(other *ValidationError) {
	if other != nil {
		e.Fields = append(e.Fields, other.Fields...)
	}
}

// HasErrors reports whether any field problem was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns e when it holds problems and a nil error otherwise, so callers
// never return a typed nil.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// Has reports whether field has at least one recorded problem.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// PersistenceError wraps a record store failure that aborted an operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err, leaving nil and NotFound errors untouched.
func Persistence(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// UploadError is a non-fatal, per-file upload failure.
type UploadError struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q failed: %s", e.Filename, e.Message)
}

func (e *UploadError) Unwrap() error { return e.Err }

// BlobDeletionError is a per-key deletion failure. It is logged, never
// surfaced as an operation failure.
type BlobDeletionError struct {
	URL string `json:"url"`
	Key string `json:"key,omitempty"`
	Err error  `json:"-"`
}

func (e *BlobDeletionError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cannot delete blob for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("delete of blob %s failed: %v", e.Key, e.Err)
}

func (e *BlobDeletionError) Unwrap() error { return e.Err }
