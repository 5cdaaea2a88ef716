package consoleerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailureMatchesKind(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", &Failure{Kind: ErrAuthFailed, Status: 401})
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatal("expected wrapped failure to match ErrAuthFailed")
	}
	if errors.Is(err, ErrNetwork) {
		t.Fatal("expected failure not to match ErrNetwork")
	}
	if !ForcesLogout(err) {
		t.Fatal("expected auth failure to force logout")
	}
}

func TestFailureErrorText(t *testing.T) {
	if got := New(ErrNetwork, "connection reset").Error(); got != "network failure: connection reset" {
		t.Fatalf("unexpected error text: %s", got)
	}
	if got := (&Failure{Kind: ErrAuthRequired}).Error(); got != "authentication required" {
		t.Fatalf("unexpected error text: %s", got)
	}
}
