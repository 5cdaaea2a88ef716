package render

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// Panel is the structured side view. Writes are last-write-wins: background refreshes
// and operator dispatches may settle in any order.
type Panel struct {
	Content  string
	Stale    bool
	Revision uint64
}

func (p Panel) Empty() bool {
	return p.Content == ""
}

func (p *Pipeline) Panel() Panel {
	return p.panel
}

// ApplyState shows state pretty-printed in the order it was received. Nil state clears
// the panel and marks it stale so earlier data is never presented as current.
func (p *Pipeline) ApplyState(state json.RawMessage) {
	p.panel.Revision++
	if len(bytes.TrimSpace(state)) == 0 {
		p.panel.Content = ""
		p.panel.Stale = true
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, state, "", "  "); err != nil {
		p.panel.Content = string(state)
	} else {
		p.panel.Content = buf.String()
	}
	p.panel.Stale = false
}

// ClearPanel drops panel content without flagging it stale; used on logout.
func (p *Pipeline) ClearPanel() {
	p.panel = Panel{Revision: p.panel.Revision + 1}
}

// Highlight colours JSON panel content for a 256-colour terminal.
func Highlight(content string) string {
	if strings.TrimSpace(content) == "" {
		return content
	}
	var out strings.Builder
	if err := quick.Highlight(&out, content, "json", "terminal256", "monokai"); err != nil {
		return content
	}
	return out.String()
}
