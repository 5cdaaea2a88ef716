package render

import (
	"errors"
	"fmt"

	"github.com/dwizi/ops-console/internal/consoleerr"
	"github.com/dwizi/ops-console/internal/dispatch"
	"github.com/dwizi/ops-console/internal/markup"
)

type LineKind int

const (
	KindOutput LineKind = iota
	KindEcho
	KindSystem
	KindError
)

const defaultMaxLines = 2000

// Line is one numbered unit in the terminal view.
type Line struct {
	Number int
	Markup string
	Kind   LineKind
}

// Pipeline owns the terminal transcript, the side panel and the busy flag. It is
// driven from the UI loop only and is not safe for concurrent use.
type Pipeline struct {
	prompt        string
	lines         []Line
	lastNumber    int
	version       uint64
	maxLines      int
	panel         Panel
	busy          bool
	scrollPending bool
}

func New(prompt string) *Pipeline {
	if prompt == "" {
		prompt = ">"
	}
	return &Pipeline{prompt: prompt, maxLines: defaultMaxLines}
}

// Reset starts a fresh transcript; numbering restarts at 1.
func (p *Pipeline) Reset() {
	p.lines = nil
	p.lastNumber = 0
	p.version++
	p.scrollPending = true
}

// RenderCommandEcho shows operator text. The text is untrusted and always escaped.
func (p *Pipeline) RenderCommandEcho(text string) Line {
	content := fmt.Sprintf(`<span class="prompt">%s</span> <span class="user-input">%s</span>`, markup.Escape(p.prompt), markup.Escape(text))
	return p.append(content, KindEcho)
}

// RenderTrusted inserts backend markup verbatim. The execution backend is the trust
// boundary; nothing operator-supplied may reach this call unescaped.
func (p *Pipeline) RenderTrusted(content string, kind LineKind) Line {
	return p.append(content, kind)
}

// RenderText escapes a client-side message and inserts it as a paragraph.
func (p *Pipeline) RenderText(text string, kind LineKind) Line {
	switch kind {
	case KindError:
		return p.append("<p style='color: #ff5555;'>"+markup.Escape(text)+"</p>", kind)
	case KindSystem:
		return p.append("<p style='color: #50fa7b;'>"+markup.Escape(text)+"</p>", kind)
	default:
		return p.append("<p>"+markup.Escape(text)+"</p>", kind)
	}
}

// RenderResponse renders the single markup unit of envelope and, for dual-channel
// envelopes, updates the side panel.
func (p *Pipeline) RenderResponse(envelope dispatch.Envelope) Line {
	var line Line
	if content := envelope.Renderable(); content != "" {
		line = p.RenderTrusted(content, KindOutput)
	} else {
		line = p.append(`<p style="color: #6272a4;">(no output)</p>`, KindSystem)
	}
	if envelope.ExpectsState() {
		p.ApplyState(envelope.State)
	}
	return line
}

// RenderFailure turns any dispatch error into exactly one visible line.
func (p *Pipeline) RenderFailure(err error) Line {
	if err == nil {
		return Line{}
	}
	var failure *consoleerr.Failure
	if errors.As(err, &failure) && failure.Markup != "" {
		return p.RenderTrusted(failure.Markup, KindError)
	}
	switch {
	case errors.Is(err, consoleerr.ErrAuthRequired):
		return p.RenderText("Error: Not authenticated. Please sign in again.", KindError)
	case errors.Is(err, consoleerr.ErrAuthFailed):
		return p.RenderText("Error: Authentication rejected by backend. Please sign in again.", KindError)
	case errors.Is(err, consoleerr.ErrNetwork):
		return p.RenderText("Network or Interface Error: "+failureMessage(err), KindError)
	case errors.Is(err, consoleerr.ErrValidation):
		return p.RenderText("Invalid input: "+failureMessage(err), KindError)
	case errors.Is(err, consoleerr.ErrSigning):
		return p.RenderText("Signing failed: "+failureMessage(err), KindError)
	default:
		return p.RenderText("Error: "+err.Error(), KindError)
	}
}

func (p *Pipeline) SetBusy(busy bool) {
	p.busy = busy
}

func (p *Pipeline) Busy() bool {
	return p.busy
}

func (p *Pipeline) Lines() []Line {
	out := make([]Line, len(p.lines))
	copy(out, p.lines)
	return out
}

func (p *Pipeline) LastNumber() int {
	return p.lastNumber
}

// Version changes whenever the transcript does, including on Reset.
func (p *Pipeline) Version() uint64 {
	return p.version
}

// TakeScroll reports and clears a pending scroll-to-bottom. The view calls it when it
// lays out the next frame rather than at insertion time.
func (p *Pipeline) TakeScroll() bool {
	pending := p.scrollPending
	p.scrollPending = false
	return pending
}

func (p *Pipeline) append(content string, kind LineKind) Line {
	p.lastNumber++
	p.version++
	line := Line{Number: p.lastNumber, Markup: content, Kind: kind}
	p.lines = append(p.lines, line)
	if p.maxLines > 0 && len(p.lines) > p.maxLines {
		p.lines = append([]Line(nil), p.lines[len(p.lines)-p.maxLines:]...)
	}
	p.scrollPending = true
	return line
}

func failureMessage(err error) string {
	var failure *consoleerr.Failure
	if errors.As(err, &failure) && failure.Message != "" {
		return failure.Message
	}
	return err.Error()
}
