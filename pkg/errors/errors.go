// Package errors is the structured error type shared by every plexnet
// layer.  Codes classify a failure as malformed model data, an engine
// consistency fault, a lookup miss or an infrastructure problem, so callers
// branch on the code instead of the message.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const maxFrames = 32

// AppError carries a code, a message, optional detail and the wrapped cause.
// Stack is recorded at construction and is not part of Error().
//
//	return errors.Default(errors.ErrCodeNotSimpleGraph).WithDetailf("mol %d site %d", m, s)
//	return errors.Wrap(err, errors.ErrCodeCatalogWrite, "redis export failed")
type AppError struct {
	Code    ErrorCode
	Message string
	Detail  string
	Cause   error
	Stack   string
}

// build records the stack starting at the caller of the exported
// constructor that called it.
func build(code ErrorCode, message string, cause error) *AppError {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(3, pcs)
	var sb strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for more := n > 0; more; {
		var f runtime.Frame
		f, more = frames.Next()
		if f.File != "" && !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
	}
	return &AppError{Code: code, Message: message, Cause: cause, Stack: sb.String()}
}

// Error renders "[code] message: detail: cause", omitting empty parts.
func (e *AppError) Error() string {
	out := "[" + string(e.Code) + "] " + e.Message
	if e.Detail != "" {
		out += ": " + e.Detail
	}
	if e.Cause != nil {
		out += ": " + e.Cause.Error()
	}
	return out
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) Category() Category {
	if e == nil {
		return CategoryNone
	}
	return CategoryForCode(e.Code)
}

// WithDetail returns a copy with Detail replaced.  Package-level sentinel
// errors stay untouched; a nil receiver yields nil.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	c := *e
	c.Detail = detail
	return &c
}

func (e *AppError) WithDetailf(format string, args ...interface{}) *AppError {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

// WithCause returns a copy with Cause replaced.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	c := *e
	c.Cause = err
	return &c
}

func New(code ErrorCode, message string) *AppError { return build(code, message, nil) }

func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return build(code, fmt.Sprintf(format, args...), nil)
}

// Default uses the code's registered message.
func Default(code ErrorCode) *AppError { return build(code, DefaultMessageForCode(code), nil) }

// Wrap returns nil for a nil err.  CodeUnknown keeps the code of the first
// AppError in err's chain.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var inner *AppError
		if errors.As(err, &inner) {
			code = inner.Code
		}
	}
	return build(code, message, err)
}

// IsCode looks for code anywhere in err's chain, not only at the first
// AppError.
func IsCode(err error, code ErrorCode) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if ae, ok := err.(*AppError); ok && ae.Code == code {
			return true
		}
	}
	return false
}

// GetCode returns CodeOK for nil and CodeUnknown when err carries no
// AppError.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

func GetCategory(err error) Category {
	if err == nil {
		return CategoryNone
	}
	return CategoryForCode(GetCode(err))
}

func IsStructural(err error) bool { return GetCategory(err) == CategoryStructuralInput }

func IsInternal(err error) bool { return GetCategory(err) == CategoryInternalConsistency }
