package dispatch

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Format int

const (
	// FormatMarkup is the legacy body: a bare JSON string of rendered markup.
	FormatMarkup Format = iota
	// FormatMarkupPlusState is the dual-channel {htmlResponse, jsonData} object.
	FormatMarkupPlusState
	// FormatUnparseable is a body that is not JSON; it is rendered as literal markup.
	FormatUnparseable
)

func (f Format) String() string {
	switch f {
	case FormatMarkup:
		return "markup"
	case FormatMarkupPlusState:
		return "markup+state"
	case FormatUnparseable:
		return "unparseable"
	default:
		return "unknown"
	}
}

// Envelope is the classified form of one response body.
type Envelope struct {
	Format Format
	Markup string
	// State is jsonData verbatim, nil when absent or null.
	State json.RawMessage
	Raw   string
	// Nonstandard marks structured bodies that carried no markup field.
	Nonstandard bool
}

func Markup(content string) Envelope {
	return Envelope{Format: FormatMarkup, Markup: content, Raw: content}
}

func MarkupPlusState(content string, state json.RawMessage) Envelope {
	return Envelope{Format: FormatMarkupPlusState, Markup: content, State: normalizeState(state)}
}

func Unparseable(raw string) Envelope {
	return Envelope{Format: FormatUnparseable, Raw: raw}
}

// Renderable is the single markup unit to hand to the render pipeline.
func (e Envelope) Renderable() string {
	if e.Format == FormatUnparseable {
		return e.Raw
	}
	return e.Markup
}

// ExpectsState reports whether the side panel should follow this envelope.
func (e Envelope) ExpectsState() bool {
	return e.Format == FormatMarkupPlusState
}

type dualChannelBody struct {
	HTMLResponse *string         `json:"htmlResponse"`
	JSONData     json.RawMessage `json:"jsonData"`
}

// Classify infers the response format by attempting a structured parse.
func Classify(body string) Envelope {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return Unparseable(body)
	}

	switch trimmed[0] {
	case '"':
		var content string
		if err := json.Unmarshal([]byte(trimmed), &content); err == nil {
			env := Markup(content)
			env.Raw = body
			return env
		}
	case '{':
		var parsed dualChannelBody
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			env := MarkupPlusState("", parsed.JSONData)
			env.Raw = body
			if parsed.HTMLResponse != nil {
				env.Markup = *parsed.HTMLResponse
				return env
			}
			env.Nonstandard = true
			return env
		}
	}

	env := MarkupPlusState("", nil)
	env.Raw = body
	env.Nonstandard = true
	return env
}

func normalizeState(state json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(state)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}
