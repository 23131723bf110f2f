package wire

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is the root of every decode-time error caused by bad input.
var ErrMalformed = errors.New("malformed protobuf input")

// Decoding errors. All of them match ErrMalformed with errors.Is.
var (
	ErrTruncated          = fmt.Errorf("%w: unexpected end of input", ErrMalformed)
	ErrVarintOverflow     = fmt.Errorf("%w: varint overflow", ErrMalformed)
	ErrInvalidWireType    = fmt.Errorf("%w: invalid wire type", ErrMalformed)
	ErrWireTypeMismatch   = fmt.Errorf("%w: wire type does not match field type", ErrMalformed)
	ErrInvalidFieldNumber = fmt.Errorf("%w: invalid field number", ErrMalformed)
	ErrInvalidUTF8        = fmt.Errorf("%w: string field contains invalid UTF-8", ErrMalformed)
)

// FieldError represents an encoding/decoding error with a field path.
type FieldError struct {
	FieldPath []string // e.g., ["profile", "address", "latitude"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("error at proto path %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// WrapField prefixes the path of err with fieldName. Errors that already carry
// a path are extended rather than nested, so the path reads outermost first.
func WrapField(err error, fieldName string) error {
	if err == nil {
		return nil
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{
			FieldPath: append([]string{fieldName}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []string{fieldName},
		Err:       err,
	}
}
