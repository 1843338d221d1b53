package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a coded error with optional structured context.
// The Message is returned verbatim by Error(); the wrapped cause is
// reachable through errors.Unwrap but not repeated in the message.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
// This allows errors.Is(err, &Error{Code: CodeConflict}) style checks.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// Details renders the message followed by sorted context pairs. Useful for logs.
func (e *Error) Details() string {
	if len(e.Context) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(e.Message)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Context[k])
	}

	return b.String()
}

// New creates a coded error.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}

	return &Error{Code: code, Message: message, Err: err}
}

// WrapWithContext attaches a code, message and structured context to err.
// Unlike Wrap, a nil err still produces an error so validation code can use it
// to report failures that have no underlying cause.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) error {
	return &Error{Code: code, Message: message, Context: ctx, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}

	return CodeUnknown
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}

	return false
}
