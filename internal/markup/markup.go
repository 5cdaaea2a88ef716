package markup

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var escapeReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var styleColorPattern = regexp.MustCompile(`(?i)(?:^|;)\s*color\s*:\s*([^;]+)`)

var namedColors = map[string]string{
	"red":    "#ff5555",
	"green":  "#50fa7b",
	"yellow": "#f1fa8c",
	"orange": "#ffb86c",
	"blue":   "#8be9fd",
	"gray":   "#6272a4",
	"grey":   "#6272a4",
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "pre": true, "blockquote": true, "table": true,
	"tr": true, "hr": true, "dl": true, "dt": true, "dd": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "head": true, "title": true, "template": true,
}

// Escape makes operator text safe to embed in markup. Non-string input yields "".
func Escape(input any) string {
	text, ok := input.(string)
	if !ok {
		return ""
	}
	return escapeReplacer.Replace(text)
}

// IsMarkupShaped reports whether body looks like rendered markup rather than a bare message.
func IsMarkupShaped(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), "<")
}

// ToText flattens trusted markup into terminal lines.
func ToText(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.Split(html.UnescapeString(content), "\n")
	}
	writer := &textWriter{}
	writer.walk(doc.Selection)
	writer.flush()
	return writer.lines
}

// ColorHint returns the first inline foreground colour declared in content as a hex value.
func ColorHint(content string) string {
	if !strings.Contains(strings.ToLower(content), "color") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	hint := ""
	doc.Find("[style]").EachWithBreak(func(_ int, selection *goquery.Selection) bool {
		style, _ := selection.Attr("style")
		matches := styleColorPattern.FindStringSubmatch(style)
		if len(matches) != 2 {
			return true
		}
		hint = normalizeColor(matches[1])
		return hint == ""
	})
	return hint
}

func normalizeColor(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.TrimSuffix(value, "!important")
	value = strings.TrimSpace(value)
	if mapped, ok := namedColors[value]; ok {
		return mapped
	}
	if strings.HasPrefix(value, "#") && (len(value) == 4 || len(value) == 7) {
		return value
	}
	return ""
}

type textWriter struct {
	lines        []string
	current      strings.Builder
	hasText      bool
	pendingSpace bool
}

func (w *textWriter) walk(selection *goquery.Selection) {
	selection.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			w.writeText(child.Text())
		case name == "br":
			if !w.hasText {
				w.lines = append(w.lines, "")
			}
			w.flush()
		case skippedElements[name]:
		case blockElements[name]:
			w.flush()
			if name == "li" {
				w.current.WriteString("- ")
			}
			w.walk(child)
			w.flush()
		default:
			w.walk(child)
		}
	})
}

func (w *textWriter) writeText(text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		if text != "" && w.hasText {
			w.pendingSpace = true
		}
		return
	}
	if w.hasText && (w.pendingSpace || startsWithSpace(text)) {
		w.current.WriteByte(' ')
	}
	w.current.WriteString(strings.Join(fields, " "))
	w.hasText = true
	w.pendingSpace = endsWithSpace(text)
}

func (w *textWriter) flush() {
	if w.hasText {
		w.lines = append(w.lines, strings.TrimRight(w.current.String(), " "))
	}
	w.current.Reset()
	w.hasText = false
	w.pendingSpace = false
}

func startsWithSpace(text string) bool {
	return text != "" && strings.TrimLeft(text, " \t\r\n") != text
}

func endsWithSpace(text string) bool {
	return text != "" && strings.TrimRight(text, " \t\r\n") != text
}
