package splice

import (
	"errors"
	"fmt"
)

// Splice errors.
var (
	ErrStructuralIncompatibility = errors.New("structural incompatibility")
	ErrInvalidWeightCount        = errors.New("invalid splice weight count")
	ErrPoolNotFound              = errors.New("gene pool not registered")
	ErrNoBaseArchetype           = errors.New("base archetype not set")
	ErrFilterOutOfRange          = errors.New("filter index out of range")
)

// ErrorKind classifies a StatusError.
type ErrorKind int

// Error kinds.
const (
	StructuralIncompatibility ErrorKind = iota + 1
	InvalidWeightCount
	FilterOutOfRange
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case StructuralIncompatibility:
		return "StructuralIncompatibility"
	case InvalidWeightCount:
		return "InvalidWeightCount"
	case FilterOutOfRange:
		return "FilterOutOfRange"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// StatusError reports a validation failure with its kind and a message.
// It matches the sentinel of its kind through errors.Is.
type StatusError struct {
	Kind    ErrorKind
	Message string
}

func (e *StatusError) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// Is lets errors.Is match the sentinel belonging to the kind.
func (e *StatusError) Is(target error) bool {
	switch e.Kind {
	case StructuralIncompatibility:
		return target == ErrStructuralIncompatibility
	case InvalidWeightCount:
		return target == ErrInvalidWeightCount
	case FilterOutOfRange:
		return target == ErrFilterOutOfRange
	}
	return false
}

func statusf(kind ErrorKind, format string, args ...any) *StatusError {
	return &StatusError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
