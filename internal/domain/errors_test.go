package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewErrorDefaults(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeSubscriptionRequired, http.StatusForbidden},
		{CodePaymentExpired, http.StatusBadRequest},
		{CodeWeakPassword, http.StatusUnprocessableEntity},
		{CodePendingPaymentNotFound, http.StatusNotFound},
		{CodeEmailAlreadyExists, http.StatusConflict},
		{CodeResendLimitExceeded, http.StatusTooManyRequests},
		{CodePaymentGatewayError, http.StatusBadGateway},
		{CodeDatabaseError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := NewError(tt.code, "")
		if err.Status != tt.status {
			t.Errorf("%s status = %d, want %d", tt.code, err.Status, tt.status)
		}
		if err.Message == "" {
			t.Errorf("%s has no default message", tt.code)
		}
	}
}

func TestAppErrorChain(t *testing.T) {
	cause := errors.New("connection reset")
	appErr := Internal("Erro ao salvar").Wrap(cause).WithMetadata("remainingAttempts", 2)
	wrapped := fmt.Errorf("service: %w", appErr)

	got, ok := AsAppError(wrapped)
	if !ok || got.Code != CodeInternalServerError {
		t.Fatalf("AsAppError = %v, %v", got, ok)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("cause lost in chain")
	}
	if got.Metadata["remainingAttempts"] != 2 {
		t.Errorf("metadata = %v", got.Metadata)
	}
	if !HasCode(wrapped, CodeInternalServerError) || HasCode(cause, CodeInternalServerError) {
		t.Error("HasCode mismatch")
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseRole(string(r))
		if err != nil || got != r {
			t.Errorf("ParseRole(%q) = %q, %v", r, got, err)
		}
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Error("unknown role accepted")
	}
}
