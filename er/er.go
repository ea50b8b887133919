// Package er implements the error-kind taxonomy used throughout this
// module: packages declare an ErrorType, vend named *ErrorCode values from
// it, and every fallible function returns R instead of a bare error so
// callers can switch on "kind" rather than on a concrete Go type.
package er

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
)

var stacktraceDisabled = []string{"No stack, ENABLE_STACKTRACE not set"}

// R is the error value returned by every fallible function in this module.
type R interface {
	error

	// Message returns the human readable error text.
	Message() string
	// Stack returns the captured stack trace, or a sentinel if capture
	// was disabled (the default).
	Stack() []string
	// String renders the message and, when available, the stack trace.
	String() string
	// Wrapped0 returns the underlying Go error this R wraps.
	Wrapped0() error
	// Native converts this R back into a plain error, losing the kind.
	Native() error
	// CodeOf returns the ErrorCode this error was constructed from, or
	// nil if it was built with New/Errorf/E and carries no code.
	CodeOf() *ErrorCode
}

type err struct {
	e      error
	code   *ErrorCode
	bstack []byte
	stack  []string
}

func (e *err) Error() string { return e.Message() }

func (e *err) Stack() []string {
	if e.stack == nil {
		if e.bstack != nil {
			e.stack = strings.Split(string(e.bstack), "\n")
		} else {
			e.stack = stacktraceDisabled
		}
	}
	return e.stack
}

func (e *err) Message() string { return e.e.Error() }

func (e *err) String() string {
	if e.bstack != nil {
		return fmt.Sprintf("%s\n%s", e.e.Error(), strings.Join(e.Stack(), "\n"))
	}
	return e.e.Error()
}

func (e *err) Wrapped0() error { return e.e }

func (e *err) Native() error { return errors.New(e.String()) }

func (e *err) CodeOf() *ErrorCode { return e.code }

func captureStack() []byte {
	if os.Getenv("ENABLE_STACKTRACE") == "" {
		return nil
	}
	return debug.Stack()
}

// Wrapped unwraps an R back to the underlying error, or nil.
func Wrapped(e R) error {
	if e == nil {
		return nil
	}
	return e.Wrapped0()
}

// New builds an R with no code, carrying the given message.
func New(s string) R {
	return &err{e: errors.New(s), bstack: captureStack()}
}

// Errorf builds an R with no code using fmt.Errorf-style formatting.
func Errorf(format string, a ...interface{}) R {
	return &err{e: fmt.Errorf(format, a...), bstack: captureStack()}
}

// E wraps a plain error as an R. Returns nil for a nil input so call sites
// can write `return er.E(someStdlibCall())` without an extra nil check.
func E(e error) R {
	if e == nil {
		return nil
	}
	return &err{e: e, bstack: captureStack()}
}

// ErrorType is a namespace for a package's ErrorCode values, e.g.
// "chainengine.Err".
type ErrorType struct {
	name string
}

// NewErrorType declares a new namespace of error codes. Conventionally
// called once per package as `var Err = er.NewErrorType("pkgname.Err")`.
func NewErrorType(name string) ErrorType {
	return ErrorType{name: name}
}

// GenericErrorType is used by packages that want a single shared code
// rather than a dedicated per-package namespace (mirrors wire.MessageError).
var GenericErrorType = NewErrorType("er.Generic")

// ErrorCode identifies one kind of error within an ErrorType's namespace.
type ErrorCode struct {
	typeName string
	name     string
	detail   string
}

// String returns "typeName.name", used as the code's stable identifier.
func (c *ErrorCode) String() string {
	return c.typeName + "." + c.name
}

// New constructs an R of this code with an explicit description and
// optional wrapped cause.
func (c *ErrorCode) New(desc string, cause R) R {
	msg := c.String() + ": " + desc
	e := &err{e: errors.New(msg), code: c, bstack: captureStack()}
	if cause != nil {
		e.e = fmt.Errorf("%s: %w", msg, cause)
	}
	return e
}

// Default constructs an R of this code using the code's bundled detail
// text (set via CodeWithDetail) as the description.
func (c *ErrorCode) Default() R {
	return c.New(c.detail, nil)
}

// Is reports whether e was constructed from this ErrorCode.
func (c *ErrorCode) Is(e R) bool {
	if e == nil {
		return false
	}
	return e.CodeOf() == c
}

// Code declares a new ErrorCode with no canned detail text; callers must
// use New(desc, cause) to supply a message each time.
func (t ErrorType) Code(name string) *ErrorCode {
	return &ErrorCode{typeName: t.name, name: name}
}

// CodeWithDetail declares a new ErrorCode with a canned detail string
// usable via Default(), while still allowing New(desc, cause) for a
// situation-specific message.
func (t ErrorType) CodeWithDetail(name, detail string) *ErrorCode {
	return &ErrorCode{typeName: t.name, name: name, detail: detail}
}
