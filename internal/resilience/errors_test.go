package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
)

func TestIsFatal_ConfigurationError(t *testing.T) {
	err := NewConfigurationError("scoring.high_threshold", "must be between 0 and 100")
	if !IsFatal(err) {
		t.Error("expected ConfigurationError to be fatal")
	}
}

func TestIsFatal_WrappedConfigurationError(t *testing.T) {
	inner := NewConfigurationError("extract.mode", "unknown mode")
	wrapped := eris.Wrap(inner, "pipeline: new")
	if !IsFatal(wrapped) {
		t.Error("expected wrapped ConfigurationError to be fatal")
	}
}

func TestIsFatal_NilError(t *testing.T) {
	if IsFatal(nil) {
		t.Error("nil error should not be fatal")
	}
}

func TestIsFatal_CleaningError(t *testing.T) {
	err := NewCleaningError("name-suffix", "name", errors.New("boom"))
	if IsFatal(err) {
		t.Error("cleaning errors must not abort the batch")
	}
	if !IsCleaningError(fmt.Errorf("record 3: %w", err)) {
		t.Error("expected wrapped CleaningError to be detected")
	}
}

func TestConfigurationError_Message(t *testing.T) {
	err := NewConfigurationError("scoring.weights", "must sum to 100, got 90")
	want := "configuration: scoring.weights: must sum to 100, got 90"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	bare := &ConfigurationError{Reason: "no validated methods"}
	if bare.Error() != "configuration: no validated methods" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}

func TestGuard_ReturnsNilOnSuccess(t *testing.T) {
	if err := Guard("location-phones", "location", func() error { return nil }); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestGuard_WrapsError(t *testing.T) {
	cause := errors.New("bad input")
	err := Guard("name-suffix", "name", func() error { return cause })

	var ce *CleaningError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CleaningError, got %T", err)
	}
	if ce.Step != "name-suffix" || ce.Field != "name" {
		t.Errorf("unexpected step/field %q/%q", ce.Step, ce.Field)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be preserved in chain")
	}
}

func TestGuard_RecoversPanic(t *testing.T) {
	err := Guard("title-merge", "title", func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	if !IsCleaningError(err) {
		t.Fatalf("expected panic to become CleaningError, got %v", err)
	}
}
