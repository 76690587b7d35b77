package errors

import (
	"errors"
	"strings"
)

// BusinessError is a single violated business rule identified by a stable
// status code such as "PARCOURS-DOCTORAL-12".
type BusinessError struct {
	Code    string
	Message string
}

// NewBusinessError creates a business error.
func NewBusinessError(code, message string) *BusinessError {
	return &BusinessError{Code: code, Message: message}
}

// Error implements the error interface.
func (e *BusinessError) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches business errors by status code.
func (e *BusinessError) Is(target error) bool {
	t, ok := target.(*BusinessError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// MultipleBusinessErrors accumulates every rule violated by one command.
type MultipleBusinessErrors struct {
	Errors []*BusinessError
}

// Error implements the error interface.
func (m *MultipleBusinessErrors) Error() string {
	parts := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		parts[i] = e.Error()
	}
	return "business rules violated: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual violations to errors.Is and errors.As.
func (m *MultipleBusinessErrors) Unwrap() []error {
	out := make([]error, len(m.Errors))
	for i, e := range m.Errors {
		out[i] = e
	}
	return out
}

// Codes returns the status codes in the order they were recorded.
func (m *MultipleBusinessErrors) Codes() []string {
	codes := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		codes[i] = e.Code
	}
	return codes
}

// Has reports whether a violation with the given code was recorded.
func (m *MultipleBusinessErrors) Has(code string) bool {
	for _, e := range m.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Collector gathers business errors and emits a single result.
type Collector struct {
	errs []*BusinessError
}

// Add records a violation. Nil errors are ignored; nested accumulators are
// flattened.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	var me *MultipleBusinessErrors
	if errors.As(err, &me) {
		c.errs = append(c.errs, me.Errors...)
		return
	}
	var be *BusinessError
	if errors.As(err, &be) {
		c.errs = append(c.errs, be)
		return
	}
	c.errs = append(c.errs, &BusinessError{Code: "UNCLASSIFIED", Message: err.Error()})
}

// Len returns the number of recorded violations.
func (c *Collector) Len() int {
	return len(c.errs)
}

// Err returns nil when nothing was recorded.
func (c *Collector) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	out := make([]*BusinessError, len(c.errs))
	copy(out, c.errs)
	return &MultipleBusinessErrors{Errors: out}
}

// BusinessCodes extracts the status codes carried by err.
func BusinessCodes(err error) []string {
	var me *MultipleBusinessErrors
	if errors.As(err, &me) {
		return me.Codes()
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return []string{be.Code}
	}
	return nil
}

// HasCode reports whether err carries the given business status code.
func HasCode(err error, code string) bool {
	for _, c := range BusinessCodes(err) {
		if c == code {
			return true
		}
	}
	return false
}
