package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound("project", "abc123")

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFound must match ErrNotFound")
	}
	if err.Error() != "project not found with id abc123" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestValidationFailed(t *testing.T) {
	err := ValidationFailed("email", "please use an educational email address")

	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationFailed must match ErrValidation")
	}
	if err.Field != "email" {
		t.Errorf("field = %q, want email", err.Field)
	}
}

func TestConflict(t *testing.T) {
	err := Conflict("email taken")

	if !errors.Is(err, ErrConflict) {
		t.Error("Conflict must match ErrConflict")
	}
	if err.Error() != "email taken" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestForbidden(t *testing.T) {
	if !errors.Is(Forbidden("members only"), ErrForbidden) {
		t.Error("Forbidden must match ErrForbidden")
	}
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := fmt.Errorf("disk I/O error")
	err := Unavailable(cause)

	if !errors.Is(err, ErrUnavailable) {
		t.Error("Unavailable must match ErrUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("the cause must stay in the chain for logging")
	}
	// The user-facing message hides the cause.
	if msg := err.Error(); msg == cause.Error() {
		t.Errorf("message %q leaks the cause", msg)
	}
}

func TestAppErrorUnwrapsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFound("user", "u1"))

	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapping must preserve the sentinel")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("expected an *AppError in the chain")
	}
	if appErr.Message == "" {
		t.Error("expected a user-facing message")
	}
}
