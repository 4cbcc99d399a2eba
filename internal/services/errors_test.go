package services

import (
	"errors"
	"testing"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(ErrUnavailable, "vision", "classify", "classifier call failed", base)

	if !errors.Is(err, ErrUnavailable) {
		t.Error("expected wrapped error to match marker")
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to match cause")
	}
}

func TestWrapNilMarkerDefaultsToInternal(t *testing.T) {
	err := Wrap(nil, "assembly", "lookup", "candidate missing", nil)
	if !errors.Is(err, ErrInternal) {
		t.Error("nil marker should default to ErrInternal")
	}
}

func TestWrapDetailOrdering(t *testing.T) {
	err := Wrap(ErrValidation, "intake", "check images", "too many files", nil)
	want := "validation error: intake: check images: too many files"
	if err.Error() != want {
		t.Errorf("Wrap() = %q, want %q", err.Error(), want)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", Wrap(ErrValidation, "intake", "", "", nil), true},
		{"not found", Wrap(ErrNotFound, "kb", "", "", nil), true},
		{"internal", Wrap(ErrInternal, "assembly", "", "", nil), true},
		{"unavailable", Wrap(ErrUnavailable, "vision", "", "", nil), false},
		{"timeout", Wrap(ErrTimeout, "enhance", "", "", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReasonCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", Wrap(ErrValidation, "intake", "", "", nil), "invalid_request"},
		{"not found", Wrap(ErrNotFound, "kb", "", "", nil), "unknown_reference"},
		{"internal", Wrap(ErrInternal, "assembly", "", "", nil), "internal"},
		{"plain error", errors.New("mystery"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReasonCode(tt.err); got != tt.want {
				t.Errorf("ReasonCode() = %q, want %q", got, tt.want)
			}
		})
	}
}
