package history

import (
	"strings"
	"time"
)

type Direction int

const (
	Up Direction = iota
	Down
)

// Command is one submitted line. It is never mutated after creation.
type Command struct {
	Text        string
	SubmittedAt time.Time
}

// NewCommand trims raw input; ok is false when nothing is left to submit.
func NewCommand(raw string, at time.Time) (Command, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Command{}, false
	}
	return Command{Text: text, SubmittedAt: at}, true
}

// Result is what navigation asks the input line to show.
type Result struct {
	Text  string
	Found bool
	// Clear asks the caller to empty the input line.
	Clear bool
}

// Buffer is shell-style command history. The cursor ranges over [0, Len()];
// Len() means a fresh, empty input line.
type Buffer struct {
	entries []string
	cursor  int
}

func New() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Push(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if len(b.entries) == 0 || b.entries[len(b.entries)-1] != text {
		b.entries = append(b.entries, text)
	}
	b.cursor = len(b.entries)
}

func (b *Buffer) Navigate(direction Direction) Result {
	if len(b.entries) == 0 {
		return Result{}
	}
	switch direction {
	case Up:
		if b.cursor > 0 {
			b.cursor--
		}
		return Result{Text: b.entries[b.cursor], Found: true}
	case Down:
		if b.cursor < len(b.entries) {
			b.cursor++
		}
		if b.cursor >= len(b.entries) {
			b.cursor = len(b.entries)
			return Result{Clear: true}
		}
		return Result{Text: b.entries[b.cursor], Found: true}
	}
	return Result{}
}

func (b *Buffer) Reset() {
	b.entries = nil
	b.cursor = 0
}

func (b *Buffer) Len() int {
	return len(b.entries)
}

func (b *Buffer) Cursor() int {
	return b.cursor
}

func (b *Buffer) Entries() []string {
	out := make([]string, len(b.entries))
	copy(out, b.entries)
	return out
}
