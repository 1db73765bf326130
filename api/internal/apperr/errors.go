package apperr

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable class of a failed analysis.
type Kind string

const (
	KindInvalidImage        Kind = "invalid_image"
	KindNotConfigured       Kind = "not_configured"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamTimeout     Kind = "upstream_timeout"
	KindUpstreamRejected    Kind = "upstream_rejected"
	KindMalformedResponse   Kind = "malformed_response"
)

// Sub-kinds of KindMalformedResponse, carried in Error.Detail.
const (
	DetailUnparsableJSON = "unparsable_json"
	DetailMissingField   = "missing_field"
	DetailWrongType      = "wrong_type"
	DetailUnknownEnum    = "unknown_enum"
)

// DetailTooLarge marks a KindInvalidImage error caused by the size limit.
const DetailTooLarge = "too_large"

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("[%s:%s]", e.Kind, e.Op)
	if e.Detail != "" {
		prefix = fmt.Sprintf("[%s/%s:%s]", e.Kind, e.Detail, e.Op)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Malformed builds a KindMalformedResponse error with the given sub-kind.
func Malformed(detail, op, format string, args ...any) *Error {
	return &Error{
		Kind:    KindMalformedResponse,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Detail:  detail,
	}
}

// Wrap attaches kind and message to err. An err that already carries a Kind is
// returned unchanged so the innermost classification wins.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// KindOf reports the Kind of the first *Error in err's chain, or def when there is none.
func KindOf(err error, def Kind) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return def
}

// Is checks whether any error in the chain has the provided kind.
func Is(err error, kind Kind) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind == kind
	}
	return false
}

// DetailOf returns the sub-kind of the first *Error in err's chain.
func DetailOf(err error) string {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Detail
	}
	return ""
}

// MessageOf returns the user-facing message of the first *Error in err's chain,
// falling back to err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) && typed.Message != "" {
		return typed.Message
	}
	return err.Error()
}
