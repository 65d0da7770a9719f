package fault

import (
	"errors"
	"fmt"
)

type faultCode string

const (
	UnknownCode          faultCode = "unknown"
	NotFoundCode         faultCode = "not_found"
	BadInputCode         faultCode = "bad_input"
	PermissionDeniedCode faultCode = "permission_denied"
)

type FieldErrorsMetadata map[string][]string

// SyntaxMetadata locates a lexing or parsing failure inside a query text.
type SyntaxMetadata struct {
	Offset   int    `json:"offset"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

type Fault struct {
	code     faultCode
	message  string
	metadata any
	original error
}

func New(code faultCode, message string) Fault {
	return Fault{
		code:    code,
		message: message,
	}
}

// Syntax is a shorthand for a bad input fault carrying SyntaxMetadata.
func Syntax(offset int, expected, actual, format string, args ...any) Fault {
	return New(BadInputCode, fmt.Sprintf(format, args...)).WithMetadata(SyntaxMetadata{
		Offset:   offset,
		Expected: expected,
		Actual:   actual,
	})
}

func (f Fault) WithMetadata(metadata any) Fault {
	e := f
	e.metadata = metadata
	return e
}

func (f Fault) WithOriginal(original error) Fault {
	e := f
	e.original = original
	return e
}

func (f Fault) Code() faultCode {
	return f.code
}

func (f Fault) Message() string {
	return f.message
}

func (f Fault) Metadata() any {
	return f.metadata
}

func (f Fault) Original() error {
	return f.original
}

func (f Fault) Unwrap() error {
	return f.original
}

func (f Fault) Error() string {
	if f.original != nil {
		return fmt.Sprintf("%s: %v", f.message, f.original)
	}
	return f.message
}

// Is reports whether err is a fault carrying the given code.
func Is(err error, code faultCode) bool {
	var f Fault
	if errors.As(err, &f) {
		return f.code == code
	}
	return false
}
