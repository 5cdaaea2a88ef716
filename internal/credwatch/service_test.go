package credwatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dwizi/ops-console/internal/health"
)

func TestReadCredentialFirstLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("\n  a.b.c  \nsecond\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	value, err := ReadCredential(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if value != "a.b.c" {
		t.Fatalf("expected a.b.c, got %q", value)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New("  ", nil, nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestServicePicksUpExistingAndUpdatedCredential(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("first.token.value\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	received := make(chan string, 8)
	service, err := New(path, nil, func(_ context.Context, value string) {
		received <- value
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Start(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	expectValue(t, received, "first.token.value")

	if err := os.WriteFile(path, []byte("second.token.value\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	expectValue(t, received, "second.token.value")
}

func expectValue(t *testing.T, received <-chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-received:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestStartReportsDegradedWhenDirectoryMissing(t *testing.T) {
	registry := health.NewRegistry()
	service, err := New(filepath.Join(t.TempDir(), "missing", "token"), nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	service.SetReporter(registry)
	if err := service.Start(context.Background()); err == nil {
		t.Fatal("expected watch error for missing directory")
	}
	if !registry.Snapshot().Degraded() {
		t.Fatalf("expected degraded, got %+v", registry.Snapshot())
	}
}
