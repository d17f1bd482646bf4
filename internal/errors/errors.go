package errors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeIO             ErrorType = "IO_FAILURE"
	ErrorTypeNotARepository ErrorType = "NOT_A_REPOSITORY"
	ErrorTypeObjectNotFound ErrorType = "OBJECT_NOT_FOUND"
	ErrorTypeInvalidHash    ErrorType = "INVALID_HASH"
	ErrorTypeSerialization  ErrorType = "SERIALIZATION_FAILURE"
	ErrorTypeNoChanges      ErrorType = "NO_CHANGES"
	ErrorTypeCorrupt        ErrorType = "REPOSITORY_CORRUPT"
	ErrorTypeRefConflict    ErrorType = "REF_CONFLICT"
	ErrorTypeValidation     ErrorType = "VALIDATION"
)

// Error is the single error type returned by the engine. Op names the
// failing operation and Subject the path or hash it was working on.
type Error struct {
	Type    ErrorType `json:"type"`
	Op      string    `json:"op,omitempty"`
	Subject string    `json:"subject,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Sentinels for errors.Is. Matching is by type only.
var (
	ErrIO             = &Error{Type: ErrorTypeIO}
	ErrNotARepository = &Error{Type: ErrorTypeNotARepository}
	ErrObjectNotFound = &Error{Type: ErrorTypeObjectNotFound}
	ErrInvalidHash    = &Error{Type: ErrorTypeInvalidHash}
	ErrSerialization  = &Error{Type: ErrorTypeSerialization}
	ErrNoChanges      = &Error{Type: ErrorTypeNoChanges}
	ErrCorrupt        = &Error{Type: ErrorTypeCorrupt}
	ErrRefConflict    = &Error{Type: ErrorTypeRefConflict}
	ErrValidation     = &Error{Type: ErrorTypeValidation}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}
	if e.Subject != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Subject)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Code maps the error type to the HTTP status the API answers with.
func (e *Error) Code() int {
	switch e.Type {
	case ErrorTypeObjectNotFound:
		return http.StatusNotFound
	case ErrorTypeInvalidHash, ErrorTypeValidation, ErrorTypeNoChanges:
		return http.StatusBadRequest
	case ErrorTypeRefConflict:
		return http.StatusConflict
	case ErrorTypeNotARepository:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

func IO(op, subject string, err error) *Error {
	return &Error{
		Type:    ErrorTypeIO,
		Op:      op,
		Subject: subject,
		Message: "i/o failure on",
		Err:     err,
	}
}

func NotARepository(root string) *Error {
	return &Error{
		Type:    ErrorTypeNotARepository,
		Message: "not a cogit repository:",
		Subject: root,
	}
}

func ObjectNotFound(hash string) *Error {
	return &Error{
		Type:    ErrorTypeObjectNotFound,
		Message: "object not found:",
		Subject: hash,
	}
}

func InvalidHash(hash string) *Error {
	return &Error{
		Type:    ErrorTypeInvalidHash,
		Message: "invalid hash",
		Subject: fmt.Sprintf("%q", hash),
	}
}

func Serialization(what string, err error) *Error {
	return &Error{
		Type:    ErrorTypeSerialization,
		Message: "malformed",
		Subject: what,
		Err:     err,
	}
}

func NoChanges(path string) *Error {
	return &Error{
		Type:    ErrorTypeNoChanges,
		Message: "no changes in",
		Subject: path,
	}
}

func Corrupt(hash string, err error) *Error {
	return &Error{
		Type:    ErrorTypeCorrupt,
		Message: "repository corrupt at",
		Subject: hash,
		Err:     err,
	}
}

func RefConflict(ref, expected, found string) *Error {
	return &Error{
		Type:    ErrorTypeRefConflict,
		Message: "concurrent update of",
		Subject: ref,
		Err:     fmt.Errorf("expected %q, found %q", expected, found),
	}
}

func ValidationError(message string, subject string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Message: message,
		Subject: subject,
	}
}
