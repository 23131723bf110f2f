package codec

import (
	"errors"
	"fmt"

	"github.com/anirudhraja/protorun/wire"
)

// ErrMalformedInput is matched by every decode error caused by bad input,
// binary or JSON.
var ErrMalformedInput = wire.ErrMalformed

var (
	// ErrMissingFieldName is reported when a visited field number has no name
	// in the message's name table.
	ErrMissingFieldName = errors.New("missing field name")

	// ErrExtensionTypeMismatch is reported when an extension is read with a
	// descriptor other than the one it was stored with.
	ErrExtensionTypeMismatch = errors.New("extension type mismatch")

	// ErrExtensionOutOfRange is reported when an extension is set on a message
	// that does not declare its field number as an extension, or whose type
	// is not the extension's extendee.
	ErrExtensionOutOfRange = errors.New("extension field number out of range")

	// ErrInvalidUTF8 is reported when a string field holds invalid UTF-8 and
	// the target format cannot represent it.
	ErrInvalidUTF8 = errors.New("string field contains invalid UTF-8")

	ErrRecursionLimit = fmt.Errorf("%w: exceeded maximum recursion depth", ErrMalformedInput)
	ErrInvalidJSON    = fmt.Errorf("%w: invalid JSON", ErrMalformedInput)
)

// MissingFieldNameError names the field number that could not be resolved.
type MissingFieldNameError struct {
	Message     string
	FieldNumber int
}

func (e *MissingFieldNameError) Error() string {
	return fmt.Sprintf("%v: field %d of %s", ErrMissingFieldName, e.FieldNumber, e.Message)
}

func (e *MissingFieldNameError) Is(target error) bool {
	return target == ErrMissingFieldName
}

// ExtensionTypeError reports a typed extension read that does not match the
// stored value. An absent extension is never an ExtensionTypeError.
type ExtensionTypeError struct {
	FieldNumber int
	Want        string
	Got         string
}

func (e *ExtensionTypeError) Error() string {
	return fmt.Sprintf("%v: field %d holds %s, requested %s", ErrExtensionTypeMismatch, e.FieldNumber, e.Got, e.Want)
}

func (e *ExtensionTypeError) Is(target error) bool {
	return target == ErrExtensionTypeMismatch
}

func jsonError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidJSON}, args...)...)
}
