package media

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Callers branch on them with errors.Is.
var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrEmptyBuffer     = errors.New("empty buffer")
	ErrInvalidRange    = errors.New("invalid range")
	ErrNotFound        = errors.New("video not found")
	ErrStorageIO       = errors.New("storage i/o error")
)

// FileTypeError reports which upload check rejected the file.
type FileTypeError struct {
	Reason string
}

func (e *FileTypeError) Error() string {
	return "invalid file type: " + e.Reason
}

func (e *FileTypeError) Unwrap() error {
	return ErrInvalidFileType
}

type RangeReason int

const (
	UnsupportedUnit RangeReason = iota + 1
	MalformedSpec
	EmptyRange
	NotANumber
	StartAfterEnd
)

func (r RangeReason) String() string {
	switch r {
	case UnsupportedUnit:
		return "unsupported range unit"
	case MalformedSpec:
		return "invalid range format"
	case EmptyRange:
		return "empty range"
	case NotANumber:
		return "invalid range start"
	case StartAfterEnd:
		return "range start after end"
	}
	return fmt.Sprintf("RangeReason(%d)", int(r))
}

// RangeError is returned by ResolveRange.
type RangeError struct {
	Reason RangeReason
	Spec   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Spec)
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// StorageError wraps a durable storage failure. It matches both
// ErrStorageIO and the underlying cause.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageIO, e.Err}
}

// HTTPStatus maps an error kind to the response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidFileType),
		errors.Is(err, ErrEmptyBuffer),
		errors.Is(err, ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// KindName is the value of the "error" field in error responses.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFileType):
		return "InvalidFileTypeError"
	case errors.Is(err, ErrEmptyBuffer):
		return "EmptyBufferError"
	case errors.Is(err, ErrInvalidRange):
		return "InvalidRangeError"
	case errors.Is(err, ErrNotFound):
		return "NotFoundError"
	case errors.Is(err, ErrStorageIO):
		return "StorageIOError"
	}
	return "InternalServerError"
}

// Message is the client-safe description of err. Server-side failures never
// leak their cause since it may contain paths or backend details.
func Message(err error) string {
	var rangeErr *RangeError
	var typeErr *FileTypeError
	switch {
	case errors.As(err, &rangeErr):
		return "Invalid range: " + rangeErr.Reason.String()
	case errors.As(err, &typeErr):
		return "Invalid file type: " + typeErr.Reason
	case errors.Is(err, ErrEmptyBuffer):
		return "Uploaded file is empty"
	case errors.Is(err, ErrNotFound):
		return "Video not found"
	}
	return "Internal server error"
}
