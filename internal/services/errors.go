package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks request-level input faults rejected before the
	// pipeline runs (unknown crop, invalid growth stage, oversized images).
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups that reference data absent from the KB.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks external collaborator failures that degrade a
	// stage instead of failing the request.
	ErrUnavailable = errors.New("service unavailable")
	// ErrInternal marks pipeline invariant violations; these fail the
	// request and indicate a KB/pipeline mismatch bug.
	ErrInternal = errors.New("internal consistency error")
	// ErrConfiguration marks unusable configuration detected at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks external calls that exceeded their deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether a pipeline error must fail the request. Degradable
// markers (unavailable, timeout) never cross the orchestrator boundary.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInternal)
}

// ReasonCode maps an error to the stable reason code exposed to callers.
// Internal detail never leaks past this mapping.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "invalid_request"
	case errors.Is(err, ErrNotFound):
		return "unknown_reference"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrInternal):
		return "internal"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
