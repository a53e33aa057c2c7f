package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidProfile, "profile %d out of range", 12)

	if err.Code != ErrCodeInvalidProfile {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidProfile)
	}
	if want := "INVALID_PROFILE: profile 12 out of range"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(ErrCodeUnavailable, cause, "save %s", "preferences.json")

	if want := "UNAVAILABLE: save preferences.json: permission denied"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

// multi mimics an error that unwraps to several causes.
type multi []error

func (m multi) Error() string   { return "multi" }
func (m multi) Unwrap() []error { return m }

func TestIs(t *testing.T) {
	sentinel := New(ErrCodeImport, "import failed")

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeInvalidInput, "test"), ErrCodeInvalidInput, true},
		{"non-matching code", New(ErrCodeInvalidInput, "test"), ErrCodeUnavailable, false},
		{"outer code", Wrap(ErrCodeUnavailable, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeUnavailable, true},
		{"inner code", Wrap(ErrCodeUnavailable, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeInvalidInput, true},
		{"fmt wrapped", fmt.Errorf("restore: %w", sentinel), ErrCodeImport, true},
		{"second of several causes", multi{sentinel, New(ErrCodeUnknownFunction, "x")}, ErrCodeUnknownFunction, true},
		{"joined", errors.Join(errors.New("a"), New(ErrCodeExecution, "b")), ErrCodeExecution, true},
		{"plain error", errors.New("plain error"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestSentinelIdentity(t *testing.T) {
	a := New(ErrCodeImport, "import failed")
	b := New(ErrCodeImport, "import failed")
	if errors.Is(fmt.Errorf("x: %w", a), b) {
		t.Error("distinct sentinels with the same code compare equal")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"Error type", New(ErrCodeImport, "test"), ErrCodeImport},
		{"outermost wins", Wrap(ErrCodeUnavailable, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeUnavailable},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidNodeID, "node id cannot be empty")); got != "node id cannot be empty" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %q", got)
	}
}
