package console

import (
	"strings"

	"github.com/dwizi/ops-console/internal/history"
	"github.com/dwizi/ops-console/internal/markup"
	"github.com/dwizi/ops-console/internal/render"
)

// builtinPrefix keeps console commands out of the backend's namespace.
const builtinPrefix = ":"

type builtinFunc func(c *Controller, command history.Command)

var builtins = map[string]builtinFunc{
	":clear": func(c *Controller, _ history.Command) {
		c.Clear()
	},
	":logout": func(c *Controller, _ history.Command) {
		c.Logout("Signed out.")
	},
	":help": func(c *Controller, command history.Command) {
		c.pipeline.RenderCommandEcho(command.Text)
		c.pipeline.RenderTrusted(helpMarkup(), render.KindSystem)
	},
}

var builtinHelp = [][2]string{
	{":clear", "clear the terminal view"},
	{":logout", "sign out and clear the session"},
	{":help", "show this list"},
}

// Built-ins match case-insensitively on the whole line. Unknown ":" lines and
// everything else go to the backend.
func lookupBuiltin(text string) (builtinFunc, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if !strings.HasPrefix(text, builtinPrefix) {
		return nil, false
	}
	fn, ok := builtins[text]
	return fn, ok
}

func helpMarkup() string {
	var b strings.Builder
	b.WriteString("<p>Console commands:</p><ul>")
	for _, entry := range builtinHelp {
		b.WriteString("<li>")
		b.WriteString(markup.Escape(entry[0]))
		b.WriteString(": ")
		b.WriteString(markup.Escape(entry[1]))
		b.WriteString("</li>")
	}
	b.WriteString("</ul><p>Anything else is sent to the backend.</p>")
	return b.String()
}
