package rerr

import (
	"time"

	"github.com/rivcore/riv/errors"
)

// Error wraps an underlying error with a Kind (from which its wire status
// reply derives, see Kind.StatusCode), the operation that raised it, and
// free-form context for logging.
type Error struct {
	Err       error
	Kind      Kind
	Operation string
	Context   map[string]interface{}
	Timestamp time.Time
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given Kind wrapping err.
func New(kind Kind, err error) *Error {
	return &Error{
		Err:       err,
		Kind:      kind,
		Context:   make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// Newf creates an Error of the given Kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Err:       errors.Newf(format, args...),
		Kind:      kind,
		Context:   make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// WithOperation records which component/operation raised the error.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// WithContext adds a context key-value pair for logging.
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// StatusCode returns the wire status code for this error's Kind.
func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; otherwise returns InternalError as a conservative default.
func KindOf(err error) Kind {
	var rerrErr *Error
	if errors.As(err, &rerrErr) {
		return rerrErr.Kind
	}
	return InternalError
}
