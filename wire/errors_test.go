package wire

import (
	"errors"
	"strings"
	"testing"
)

func TestFieldError(t *testing.T) {
	tests := []struct {
		name         string
		buildError   func() error
		expectedPath string
		expectedMsg  string
	}{
		{
			name: "single field error",
			buildError: func() error {
				return WrapField(ErrTruncated, "latitude")
			},
			expectedPath: "latitude",
			expectedMsg:  "unexpected end of input",
		},
		{
			name: "nested field error",
			buildError: func() error {
				err := WrapField(ErrVarintOverflow, "latitude")
				err = WrapField(err, "target_location")
				err = WrapField(err, "input")
				return WrapField(err, "field_args")
			},
			expectedPath: "field_args.input.target_location.latitude",
			expectedMsg:  "varint overflow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buildError()

			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected FieldError, got %T", err)
			}

			actualPath := strings.Join(fieldErr.FieldPath, ".")
			if actualPath != tt.expectedPath {
				t.Errorf("expected path %q, got %q", tt.expectedPath, actualPath)
			}

			errMsg := err.Error()
			if !strings.Contains(errMsg, tt.expectedPath) {
				t.Errorf("error message should contain path %q, got: %s", tt.expectedPath, errMsg)
			}
			if !strings.Contains(errMsg, tt.expectedMsg) {
				t.Errorf("error message should contain %q, got: %s", tt.expectedMsg, errMsg)
			}
			if strings.Count(errMsg, "error at proto path") != 1 {
				t.Errorf("path prefix repeated: %s", errMsg)
			}

			if !errors.Is(err, ErrMalformed) {
				t.Error("wrapped error should still match ErrMalformed")
			}
		})
	}
}

func TestWrapFieldNil(t *testing.T) {
	if WrapField(nil, "field") != nil {
		t.Fatal("wrapping nil should return nil")
	}
}

func TestFieldErrorWithoutPath(t *testing.T) {
	err := &FieldError{Err: ErrTruncated}
	if err.Error() != ErrTruncated.Error() {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
