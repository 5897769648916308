package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"syscall"
)

// StatusUnknownError is the non-standard status used for failures with no
// better classification.
const StatusUnknownError = 520

// Kind classifies why an upload was not stored.
type Kind int

const (
	TransportError Kind = iota + 1
	EmptyUpload
	SizeMismatch
	OversizeUpload
	BlockedType
	StorageFailure
)

func (k Kind) String() string {
	switch k {
	case TransportError:
		return "transport_error"
	case EmptyUpload:
		return "empty_upload"
	case SizeMismatch:
		return "size_mismatch"
	case OversizeUpload:
		return "oversize_upload"
	case BlockedType:
		return "blocked_type"
	case StorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

// Fault is a failure reported by the transport before the upload reached
// the validator.
type Fault int

const (
	FaultNone Fault = iota
	FaultNoFile
	FaultPartial
	FaultTooLarge
	FaultNoTempDir
	FaultCantWrite
	FaultUnknown
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultNoFile:
		return "no_file"
	case FaultPartial:
		return "partial"
	case FaultTooLarge:
		return "too_large"
	case FaultNoTempDir:
		return "no_temp_dir"
	case FaultCantWrite:
		return "cant_write"
	default:
		return "unknown"
	}
}

// Error is a rejected or failed upload. Code is the HTTP status surfaced to
// the uploader and Message the text shown alongside it.
type Error struct {
	Kind    Kind
	Fault   Fault
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Internal reports whether the error is a server-side failure rather than a
// problem with the client's input.
func (e *Error) Internal() bool {
	return e.Code >= http.StatusInternalServerError
}

// PublicMessage is the text returned to the client. Details of internal
// failures are only exposed when debug is set.
func (e *Error) PublicMessage(debug bool) string {
	if !e.Internal() || debug {
		return e.Message
	}
	if e.Code == StatusUnknownError {
		return "Unknown Error"
	}
	return http.StatusText(e.Code)
}

// Journaled reports whether the rejection belongs in the error log. Plain
// size-limit rejections are frequent and carry no diagnostic value, so they
// are left out to keep clients from flooding the log.
func (e *Error) Journaled() bool {
	if e.Kind == OversizeUpload {
		return false
	}
	if e.Kind == TransportError && e.Fault == FaultTooLarge {
		return false
	}
	return true
}

func maxSizeMessage(maxSizeMiB float64) string {
	return fmt.Sprintf("Max file size (%g MiB) exceeded", maxSizeMiB)
}

// transportError builds the rejection for a transport fault.
func transportError(fault Fault, maxSizeMiB float64, err error) *Error {
	e := &Error{Kind: TransportError, Fault: fault, Err: err}
	switch fault {
	case FaultNoFile:
		e.Code, e.Message = http.StatusBadRequest, "No file uploaded"
	case FaultPartial:
		e.Code, e.Message = http.StatusBadRequest, "File was only partially uploaded"
	case FaultTooLarge:
		e.Code, e.Message = http.StatusRequestEntityTooLarge, maxSizeMessage(maxSizeMiB)
	case FaultNoTempDir:
		e.Code, e.Message = http.StatusInternalServerError, "Missing temporary folder"
	case FaultCantWrite:
		e.Code, e.Message = http.StatusInternalServerError, "Failed to write to disk"
	default:
		e.Fault = FaultUnknown
		e.Code, e.Message = StatusUnknownError, "Unknown upload error"
	}
	return e
}

// ClassifyTransport maps an error from reading a multipart request onto a
// transport fault.
func ClassifyTransport(err error) Fault {
	if err == nil {
		return FaultNone
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return FaultNoFile
	case errors.As(err, &maxBytesErr), errors.Is(err, multipart.ErrMessageTooLarge):
		return FaultTooLarge
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return FaultPartial
	case errors.Is(err, fs.ErrNotExist):
		return FaultNoTempDir
	case errors.Is(err, syscall.ENOSPC), errors.Is(err, fs.ErrPermission):
		return FaultCantWrite
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return FaultCantWrite
	}
	return FaultUnknown
}
