package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure.
type Kind int

const (
	KindConfiguration Kind = iota
	KindNotFound
	KindUpstream
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

type Code string

const (
	CodeMissingAPIKey            Code = "CONFIG_MISSING_API_KEY"
	CodeInvalidConfig            Code = "CONFIG_INVALID"
	CodeInvalidModel             Code = "INVALID_MODEL"
	CodeInvalidPageType          Code = "INVALID_PAGE_TYPE"
	CodeTemplateNotFound         Code = "TEMPLATE_NOT_FOUND"
	CodePageNotFound             Code = "PAGE_NOT_FOUND"
	CodeProfileNotFound          Code = "PROFILE_NOT_FOUND"
	CodeUpstreamRequestFailed    Code = "UPSTREAM_REQUEST_FAILED"
	CodeUpstreamInvalidResponse  Code = "UPSTREAM_INVALID_RESPONSE"
	CodeTemplateValidationFailed Code = "TEMPLATE_VALIDATION_FAILED"
	CodeProfileValidationFailed  Code = "PROFILE_VALIDATION_FAILED"
	CodeInvalidRequest           Code = "INVALID_REQUEST"
)

// Error is a classified failure carrying a user-facing message.
type Error struct {
	Kind    Kind
	Code    Code
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

func Configuration(code Code, msg string) *Error {
	return &Error{Kind: KindConfiguration, Code: code, Message: msg}
}

func NotFound(code Code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func Upstream(code Code, msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: msg, Err: err}
}

func Validation(code Code, msg string, err error) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
