package markup

import (
	"html"
	"strings"
	"testing"
)

func TestEscapeReplacesMarkupCharacters(t *testing.T) {
	input := `<a href="x">Tom & 'Jerry'</a>`
	escaped := Escape(input)
	for _, raw := range []string{"<", ">", `"`, "'"} {
		if strings.Contains(escaped, raw) {
			t.Fatalf("expected %q to be escaped in %s", raw, escaped)
		}
	}
	if strings.Contains(strings.ReplaceAll(escaped, "&amp;", ""), "& ") {
		t.Fatalf("expected bare ampersand to be escaped in %s", escaped)
	}
	if got := html.UnescapeString(escaped); got != input {
		t.Fatalf("expected round trip %q, got %q", input, got)
	}
}

func TestEscapeDoesNotDoubleEscape(t *testing.T) {
	if got := Escape("&lt;"); got != "&amp;lt;" {
		t.Fatalf("expected &amp;lt;, got %s", got)
	}
	if got := Escape("a<b"); got != "a&lt;b" {
		t.Fatalf("expected a&lt;b, got %s", got)
	}
}

func TestEscapeNonString(t *testing.T) {
	for _, input := range []any{nil, 42, []byte("x"), struct{}{}} {
		if got := Escape(input); got != "" {
			t.Fatalf("expected empty output for %T, got %q", input, got)
		}
	}
}

func TestIsMarkupShaped(t *testing.T) {
	if !IsMarkupShaped("  <p>error</p>") {
		t.Fatal("expected leading tag to be markup shaped")
	}
	if IsMarkupShaped("Internal Server Error") {
		t.Fatal("expected plain text not to be markup shaped")
	}
}

func TestToTextFlattensBlocks(t *testing.T) {
	lines := ToText("<h1>J.A.R.V.I.S. Online</h1><p>Awaiting   your\ncommand.</p><ul><li>one</li><li>two</li></ul>")
	expected := []string{"J.A.R.V.I.S. Online", "Awaiting your command.", "- one", "- two"}
	if strings.Join(lines, "|") != strings.Join(expected, "|") {
		t.Fatalf("expected %q, got %q", expected, lines)
	}
}

func TestToTextKeepsInlineSpacing(t *testing.T) {
	lines := ToText(`<span class="prompt">&gt;</span> <span class="user-input">status &amp; more</span>`)
	if len(lines) != 1 || lines[0] != "> status & more" {
		t.Fatalf("unexpected echo text: %q", lines)
	}
}

func TestToTextHandlesLineBreaksAndScripts(t *testing.T) {
	lines := ToText("first<br>second<script>alert(1)</script>")
	if strings.Join(lines, "|") != "first|second" {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if lines := ToText("   "); lines != nil {
		t.Fatalf("expected no lines for blank markup, got %q", lines)
	}
}

func TestColorHint(t *testing.T) {
	if got := ColorHint("<p style='color: #ff5555;'>Error</p>"); got != "#ff5555" {
		t.Fatalf("expected #ff5555, got %q", got)
	}
	if got := ColorHint(`<div style="font-weight:bold; color:red">x</div>`); got != "#ff5555" {
		t.Fatalf("expected mapped red, got %q", got)
	}
	if got := ColorHint("<p>plain</p>"); got != "" {
		t.Fatalf("expected no hint, got %q", got)
	}
}
