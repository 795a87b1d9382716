package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how callers are expected to recover from it.
type Kind string

const (
	KindValidation Kind = "validation"
	KindExternal   Kind = "external"
	KindCredential Kind = "credential"
	KindParse      Kind = "parse"
	KindStorage    Kind = "storage"
	KindNotFound   Kind = "not_found"
)

const (
	CodeEmptyPrompt       = "EMPTY_PROMPT"
	CodeLastSlot          = "LAST_SLOT"
	CodeIndexOutOfRange   = "INDEX_OUT_OF_RANGE"
	CodeUnknownSlot       = "UNKNOWN_SLOT"
	CodeUnknownAsset      = "UNKNOWN_ASSET"
	CodeUnknownVersion    = "UNKNOWN_VERSION"
	CodeLastProject       = "LAST_PROJECT"
	CodeStaleTranslation  = "STALE_TRANSLATION"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeCredentialExpired = "CREDENTIAL_EXPIRED"
	CodeTransient         = "TRANSIENT"
	CodeUpstream          = "UPSTREAM"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodeWriteFailed       = "WRITE_FAILED"
	CodeProjectNotFound   = "PROJECT_NOT_FOUND"
	CodeResultNotFound    = "RESULT_NOT_FOUND"
)

// Error is the single error type surfaced by the core. Code is a stable
// machine-readable identifier; Message is meant for the user.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so errors.Is(err, apperr.ErrValidation) works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrExternal   = &Error{Kind: KindExternal}
	ErrCredential = &Error{Kind: KindCredential}
	ErrParse      = &Error{Kind: KindParse}
	ErrStorage    = &Error{Kind: KindStorage}
	ErrNotFound   = &Error{Kind: KindNotFound}
)

func Validation(code, message string) error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// External wraps a failed call to the generative backend. Transient errors
// are eligible for retry.
func External(err error, transient bool) error {
	code := CodeUpstream
	if transient {
		code = CodeTransient
	}
	return &Error{Kind: KindExternal, Code: code, Message: "external call failed", Transient: transient, Err: err}
}

func CredentialExpired(err error) error {
	return &Error{
		Kind:    KindCredential,
		Code:    CodeCredentialExpired,
		Message: "credential expired or not found, re-authenticate",
		Err:     err,
	}
}

func Parse(err error) error {
	return &Error{Kind: KindParse, Code: CodeMalformedResponse, Message: "could not parse model response", Err: err}
}

func Storage(err error) error {
	return &Error{Kind: KindStorage, Code: CodeWriteFailed, Message: "persisting projects failed", Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the code of the first *Error in the chain, or "" if none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsPermanent reports whether retrying err cannot succeed.
// Unclassified errors are treated as transient.
func IsPermanent(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindExternal:
		return !e.Transient
	case "":
		return false
	default:
		return true
	}
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindCredential:
		return http.StatusUnauthorized
	case KindExternal:
		return http.StatusBadGateway
	case KindParse:
		return http.StatusUnprocessableEntity
	case KindStorage:
		return http.StatusInsufficientStorage
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
