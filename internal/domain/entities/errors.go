package entities

import "fmt"

// ErrorKind classifies storage failures so callers can react without
// parsing message text.
type ErrorKind string

const (
	ErrorKindPathResolution  ErrorKind = "path_resolution"
	ErrorKindDirectoryCreate ErrorKind = "directory_create"
	ErrorKindJSONParse       ErrorKind = "json_parse"
	ErrorKindFileWrite       ErrorKind = "file_write"
	ErrorKindFileRead        ErrorKind = "file_read"
)

// StoreError carries the failure classification alongside the underlying
// error. It participates in errors.Is/errors.As chains via Unwrap.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with a kind and the operation that failed.
func NewStoreError(kind ErrorKind, op string, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: err}
}

// KindOf returns the classification of err, or "" when err is not a
// StoreError.
func KindOf(err error) ErrorKind {
	for err != nil {
		if se, ok := err.(*StoreError); ok {
			return se.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
