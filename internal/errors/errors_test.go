package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("create: %w", NewValidationError("custom", "bad code"))

	if !IsValidationError(err) {
		t.Fatal("IsValidationError() = false, want true")
	}

	v := GetValidationError(err)
	if v == nil || v.Field != "custom" {
		t.Errorf("GetValidationError() = %+v, want field custom", v)
	}

	if got := NewValidationError("", "empty").Error(); got != "validation error: empty" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAllocationExhaustedIsBusinessError(t *testing.T) {
	err := fmt.Errorf("after 5 attempts: %w", ErrAllocationExhausted)

	if !errors.Is(err, ErrAllocationExhausted) {
		t.Error("errors.Is(err, ErrAllocationExhausted) = false")
	}

	b := GetBusinessError(err)
	if b == nil || b.Code != "ALLOCATION_EXHAUSTED" {
		t.Errorf("GetBusinessError() = %+v", b)
	}
}

func TestStoreErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreError("postgres", "insert", cause)

	if !IsStoreError(err) {
		t.Error("IsStoreError() = false")
	}
	if !errors.Is(err, cause) {
		t.Error("StoreError does not unwrap to its cause")
	}
	if got := err.Error(); got != "postgres insert: connection reset" {
		t.Errorf("Error() = %q", got)
	}
}
