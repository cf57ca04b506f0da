package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/pocket-assistant/internal/parser"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	if got := (&ValidationError{}).Message(); got != "" {
		t.Fatalf("expected empty message, got %q", got)
	}

	v := newValidationError("status", "já está concluída")
	v.add("amount", "valor inválido")
	if !v.HasErrors() {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
	if got := v.Message(); got != "valor inválido" {
		t.Fatalf("expected first field in name order, got %q", got)
	}
}

func TestParseErrorUnwraps(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("handle: %w", &ParseError{Command: "add-task", Hint: "exemplo", Err: parser.ErrEmptyTitle})
	if !errors.Is(err, parser.ErrEmptyTitle) {
		t.Fatalf("expected parser sentinel to be reachable")
	}
	var pErr *ParseError
	if !errors.As(err, &pErr) || pErr.Hint != "exemplo" {
		t.Fatalf("expected ParseError with hint, got %v", err)
	}
}

func TestNotFoundErrorIsErrNotFound(t *testing.T) {
	t.Parallel()

	err := error(&NotFoundError{Entity: "task", Ref: "#4"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected NotFoundError to match ErrNotFound")
	}
	if got := err.Error(); got != "task #4 not found" {
		t.Fatalf("unexpected message %q", got)
	}
}
