package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil-safe domain error", New(CodeLogExhausted, "log ended early"), CodeLogExhausted},
		{"wrapped domain error", fmt.Errorf("outer: %w", New(CodeBadFraming, "bad prefix")), CodeBadFraming},
		{"plain error", stderrors.New("plain"), CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil means pass", nil, ExitPass},
		{"usage", New(CodeUsage, "expected three arguments"), ExitUsage},
		{"protocol violation", New(CodeUnexpectedMethod, "unexpected method"), ExitFailure},
		{"decode error", New(CodeBadRecord, "corrupt record"), ExitFailure},
		{"unknown error", stderrors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitStatus(tt.err); got != tt.want {
				t.Errorf("ExitStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := stderrors.New("unexpected EOF")
	err := Wrap(CodeBadFraming, "record body truncated", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "record body truncated: unexpected EOF" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !stderrors.Is(err, New(CodeBadFraming, "any")) {
		t.Error("expected code-based matching via errors.Is")
	}
}
