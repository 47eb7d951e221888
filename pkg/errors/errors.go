package errors

import (
	"fmt"
	"strings"
)

// Kind groups errors by remediation: callers branch on Kind, not on the
// specific Code, when deciding whether to retry, surface, or heal.
type Kind int

const (
	KindUnspecified Kind = iota
	KindNotFound
	KindAlreadyExists
	KindNotEmpty
	KindConflict
	KindValidation
	KindUnsupported
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindNotEmpty:
		return "not_empty"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindUnsupported:
		return "unsupported"
	case KindInternal:
		return "internal"
	default:
		return "unspecified"
	}
}

// Error is the core's structured error type. It never implements
// subclassing; callers distinguish remediation paths via Kind and identity
// via Entity/EntityID.
type Error struct {
	Code     Code
	Kind     Kind
	Message  string
	Cause    error
	Entity   string // e.g. "namespace", "table", "view", "snapshot"
	EntityID string
	context  map[string]any
}

// New creates an Error with no cause.
func New(code Code, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, kind Kind, format string, args ...any) *Error {
	return New(code, kind, fmt.Sprintf(format, args...))
}

// Wrap creates an Error that chains an underlying cause.
func Wrap(code Code, kind Kind, message string, cause error) *Error {
	e := New(code, kind, message)
	e.Cause = cause
	return e
}

// WithEntity annotates the error with the entity kind and identifier it
// concerns (e.g. WithEntity("table", "db.orders")).
func (e *Error) WithEntity(entity, id string) *Error {
	e.Entity = entity
	e.EntityID = id
	return e
}

// AddContext attaches a key/value debugging pair and returns the receiver for
// chaining.
func (e *Error) AddContext(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// GetContext returns the value stored under key, or nil.
func (e *Error) GetContext(key string) any {
	if e.context == nil {
		return nil
	}
	return e.context[key]
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Entity != "" {
		fmt.Fprintf(&b, "%s %q: ", e.Entity, e.EntityID)
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.context) > 0 {
		var parts []string
		for k, v := range e.context {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, " "))
	}
	return b.String()
}

// Unwrap exposes the cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err carries the given Code, looking through wrapping.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Code.Equals(code) {
				return true
			}
			err = e.Cause
			continue
		}
		break
	}
	return false
}

func kindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnspecified
		}
		err = u.Unwrap()
	}
	return KindUnspecified
}

// IsNotFound reports whether err (or a wrapped *Error) is KindNotFound.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsAlreadyExists reports whether err is KindAlreadyExists.
func IsAlreadyExists(err error) bool { return kindOf(err) == KindAlreadyExists }

// IsNotEmpty reports whether err is KindNotEmpty.
func IsNotEmpty(err error) bool { return kindOf(err) == KindNotEmpty }

// IsConflict reports whether err is KindConflict.
func IsConflict(err error) bool { return kindOf(err) == KindConflict }

// IsValidation reports whether err is KindValidation.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }
