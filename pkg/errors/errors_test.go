package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeRenderFailed, cause, "encode png")

	if err.Code != ErrCodeRenderFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeRenderFailed)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeTemplateNotFound, "test"),
			code:     ErrCodeTemplateNotFound,
			expected: true,
		},
		{
			name:     "different code",
			err:      New(ErrCodeTokenExpired, "test"),
			code:     ErrCodeTokenConsumed,
			expected: false,
		},
		{
			name:     "wrapped with fmt",
			err:      fmt.Errorf("redeem: %w", New(ErrCodeTokenConsumed, "used")),
			code:     ErrCodeTokenConsumed,
			expected: true,
		},
		{
			name:     "validation error",
			err:      &ValidationError{Fields: []FieldError{{Field: "brideName", Message: "required"}}},
			code:     ErrCodeValidationFailed,
			expected: true,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			code:     ErrCodeInternal,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeRenderFailed, "x")); got != ErrCodeRenderFailed {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeRenderFailed)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"structured", New(ErrCodeTokenExpired, "download link expired"), "download link expired"},
		{"plain", errors.New("plain error"), "plain error"},
		{
			"validation",
			&ValidationError{Fields: []FieldError{
				{Field: "groomName", Message: "is required"},
				{Field: "ceremonyDate", Message: "must be YYYY-MM-DD"},
			}},
			"groomName: is required; ceremonyDate: must be YYYY-MM-DD",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	var ve ValidationError
	if ve.Err() != nil {
		t.Fatal("empty ValidationError.Err() should be nil")
	}

	ve.Add("brideName", "is required")
	ve.Add("colorScheme", "unknown scheme %q", "neon")

	if !ve.Has("brideName") || !ve.Has("colorScheme") {
		t.Errorf("Has() missing recorded fields: %+v", ve.Fields)
	}
	if ve.Has("groomName") {
		t.Error("Has(groomName) = true, want false")
	}

	err := ve.Err()
	if err == nil {
		t.Fatal("Err() = nil with recorded fields")
	}
	fields := FieldErrors(fmt.Errorf("bind: %w", err))
	if len(fields) != 2 {
		t.Fatalf("FieldErrors() len = %d, want 2", len(fields))
	}
	if fields[1].Message != `unknown scheme "neon"` {
		t.Errorf("message = %q", fields[1].Message)
	}

	var other ValidationError
	other.Add("formats", "unsupported format %q", "gif")
	ve.Merge(&other)
	ve.Merge(nil)
	if len(ve.Fields) != 3 {
		t.Errorf("after Merge len = %d, want 3", len(ve.Fields))
	}
}
