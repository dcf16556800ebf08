// Package errors defines the stable error code system for tin.
package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// Code is a stable error code string.
type Code string

// Error codes. Stable public contract: the CLI maps them to exit codes and
// scripts may match on them.
const (
	EUsage          Code = "E_USAGE"
	EInvalidRequest Code = "E_INVALID_REQUEST"
	EInternal       Code = "E_INTERNAL"
	EInvalidConfig  Code = "E_INVALID_CONFIG"

	// Precondition errors (abort before any write)
	ETemplateNotFound Code = "E_TEMPLATE_NOT_FOUND"
	EDestExists       Code = "E_DEST_EXISTS"
	EDestLocked       Code = "E_DEST_LOCKED"

	// Copy stage
	ECopyFailed       Code = "E_COPY_FAILED"
	ECopyVerification Code = "E_COPY_VERIFICATION"

	// Customization stage
	EManifestInvalid Code = "E_MANIFEST_INVALID"
	EWriteFailed     Code = "E_WRITE_FAILED"
	EFeature         Code = "E_FEATURE"

	// Finalization
	EPublishFailed Code = "E_PUBLISH_FAILED"
)

// TinError is the standard error type for tin errors.
type TinError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns the stable error format: "CODE: message".
func (e *TinError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *TinError) Unwrap() error {
	return e.Cause
}

// New creates a new TinError with the given code and message.
func New(code Code, msg string) error {
	return &TinError{Code: code, Msg: msg}
}

// NewWithDetails creates a new TinError with code, message, and details.
// Details map is copied (nil if empty).
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &TinError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new TinError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &TinError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new TinError wrapping an underlying error with details.
// Details map is copied (nil if empty).
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &TinError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// WithDetail returns err with key=value merged into its details.
// Non-TinErrors are wrapped as E_INTERNAL first.
func WithDetail(err error, key, value string) error {
	if err == nil {
		return nil
	}
	te, ok := AsTinError(err)
	if !ok {
		return &TinError{Code: EInternal, Msg: "internal error", Cause: err, Details: map[string]string{key: value}}
	}
	details := copyDetails(te.Details)
	if details == nil {
		details = make(map[string]string, 1)
	}
	details[key] = value
	return &TinError{Code: te.Code, Msg: te.Msg, Cause: te.Cause, Details: details}
}

// GetCode extracts the error code from an error, or empty string if not a TinError.
func GetCode(err error) Code {
	var te *TinError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// AsTinError returns (*TinError, true) if err is or wraps a TinError.
func AsTinError(err error) (*TinError, bool) {
	var te *TinError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// ExitCode returns the appropriate exit code for an error.
// Returns 0 if err is nil, 2 for usage and request errors, 1 for all others.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err) {
	case EUsage, EInvalidRequest:
		return 2
	}
	return 1
}

// Print writes the error to w in the stable stderr format:
//
//	error_code: <CODE>
//	<message>
//	<key>: <value>   (one line per detail, sorted by key)
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var te *TinError
	if !errors.As(err, &te) {
		fmt.Fprintln(w, err.Error())
		return
	}
	fmt.Fprintf(w, "error_code: %s\n", te.Code)
	fmt.Fprintln(w, te.Msg)
	if te.Cause != nil {
		fmt.Fprintf(w, "cause: %v\n", te.Cause)
	}
	keys := make([]string, 0, len(te.Details))
	for k := range te.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, te.Details[k])
	}
}
