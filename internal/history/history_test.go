package history

import (
	"strings"
	"testing"
	"time"
)

func TestPushSuppressesAdjacentDuplicates(t *testing.T) {
	buffer := New()
	for _, text := range []string{"a", "b", "b"} {
		buffer.Push(text)
	}
	if got := strings.Join(buffer.Entries(), ","); got != "a,b" {
		t.Fatalf("expected a,b, got %s", got)
	}
	buffer.Push("a")
	if got := strings.Join(buffer.Entries(), ","); got != "a,b,a" {
		t.Fatalf("expected non-adjacent duplicate kept, got %s", got)
	}
	if buffer.Cursor() != buffer.Len() {
		t.Fatalf("expected cursor at end, got %d", buffer.Cursor())
	}
}

func TestNavigateUpThenDown(t *testing.T) {
	buffer := New()
	buffer.Push("a")
	buffer.Push("b")

	if got := buffer.Navigate(Up); !got.Found || got.Text != "b" {
		t.Fatalf("expected b, got %+v", got)
	}
	if got := buffer.Navigate(Up); !got.Found || got.Text != "a" {
		t.Fatalf("expected a, got %+v", got)
	}
	if got := buffer.Navigate(Up); !got.Found || got.Text != "a" {
		t.Fatalf("expected cursor to floor at a, got %+v", got)
	}
	if got := buffer.Navigate(Down); !got.Found || got.Text != "b" {
		t.Fatalf("expected b, got %+v", got)
	}
	if got := buffer.Navigate(Down); !got.Clear || got.Found {
		t.Fatalf("expected clear signal past the last entry, got %+v", got)
	}
	if got := buffer.Navigate(Down); !got.Clear {
		t.Fatalf("expected clear signal to repeat, got %+v", got)
	}
	if buffer.Cursor() != 2 {
		t.Fatalf("expected cursor 2, got %d", buffer.Cursor())
	}
}

func TestNavigateEmptyBuffer(t *testing.T) {
	buffer := New()
	if got := buffer.Navigate(Up); got.Found || got.Clear {
		t.Fatalf("expected empty result, got %+v", got)
	}
	if got := buffer.Navigate(Down); got.Found || got.Clear {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestResetClearsEntries(t *testing.T) {
	buffer := New()
	buffer.Push("status")
	buffer.Reset()
	if buffer.Len() != 0 || buffer.Cursor() != 0 {
		t.Fatalf("expected empty buffer, got len=%d cursor=%d", buffer.Len(), buffer.Cursor())
	}
	if got := buffer.Navigate(Up); got.Found {
		t.Fatalf("expected no entry after reset, got %+v", got)
	}
}

func TestNewCommandTrims(t *testing.T) {
	now := time.Now()
	command, ok := NewCommand("  status  ", now)
	if !ok || command.Text != "status" || !command.SubmittedAt.Equal(now) {
		t.Fatalf("unexpected command: %+v", command)
	}
	if _, ok := NewCommand(" \t ", now); ok {
		t.Fatal("expected whitespace input to be rejected")
	}
}
