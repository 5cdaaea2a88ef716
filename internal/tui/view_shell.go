package tui

import (
	"fmt"
	"net/url"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/dwizi/ops-console/internal/console"
	"github.com/dwizi/ops-console/internal/markup"
	"github.com/dwizi/ops-console/internal/render"
)

func (m model) renderView() string {
	if m.quitting {
		return "ops console closed\n"
	}

	t := newTheme()
	layout := computeLayout(m.width, m.height, m.showPanel)

	header := m.renderHeader(t, layout)
	terminal := sizedStyle(lipgloss.NewStyle(), layout.TerminalWidth, layout.BodyHeight).Render(m.terminal.View())
	body := terminal
	if m.showPanel {
		panel := m.renderPanelBox(t, layout)
		if layout.Compact {
			body = lipgloss.JoinVertical(lipgloss.Left, terminal, panel)
		} else {
			body = lipgloss.JoinHorizontal(lipgloss.Top, terminal, panel)
		}
	}
	input := m.renderInput(t, layout)
	footer := sizedStyle(t.footerBox, layout.Width, layout.FooterHeight).Render(t.footerInfo.Render(m.help.View(m.keys)))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, input, footer)
	return t.appBG.Width(layout.Width).Height(layout.Height).Render(ui)
}

func (m model) renderHeader(t theme, layout uiLayout) string {
	var statusChip string
	switch m.controller.State() {
	case console.LoggedOut:
		statusChip = t.chipError.Render("SIGNED OUT")
	case console.Authenticating:
		statusChip = t.chipWarn.Render(m.spinner.View() + " AUTHENTICATING")
	case console.Busy:
		statusChip = t.chipWarn.Render(m.spinner.View() + " BUSY")
	default:
		statusChip = t.chipSuccess.Render("READY")
	}

	style := sizedStyle(t.headerBox, layout.Width, layout.HeaderHeight)
	contentWidth := innerWidth(t.headerBox, layout.Width)

	operator := "-"
	if claims, ok := m.controller.Identity(); ok {
		operator = claims.Label()
	} else if credential, ok := m.controller.Session().Credential(); ok {
		operator = string(credential.Kind)
	}

	left := t.brand.Render("Ops Console")
	if m.services != nil {
		snapshot := m.services.Snapshot()
		chip := t.chipInfo
		if snapshot.Degraded() {
			chip = t.chipError
		}
		left += " " + chip.Render("services: "+snapshot.Overall)
	}
	line1 := fillLine(left, statusChip, contentWidth)
	line2 := fillLine(
		t.headerSub.Render(trimToWidth("env: "+fallbackText(m.cfg.Environment, "unset")+" | backend: "+endpointHost(m.cfg.EndpointURL), maxInt(20, contentWidth/2))),
		t.headerSub.Render(trimToWidth("operator: "+operator, maxInt(20, contentWidth/2))),
		contentWidth,
	)
	return style.Render(strings.Join([]string{line1, line2}, "\n"))
}

func (m model) renderPanelBox(t theme, layout uiLayout) string {
	style := t.panelBox
	width := layout.PanelWidth
	panel := m.controller.Pipeline().Panel()
	subtitle := ""
	switch {
	case panel.Stale:
		subtitle = t.panelWarn.Render("stale")
	case panel.Revision > 0 && !panel.Empty():
		subtitle = t.panelSubtle.Render(fmt.Sprintf("rev %d", panel.Revision))
	}
	head := fillLine(t.panelTitle.Render("State"), subtitle, innerWidth(style, width))
	return sizedStyle(style, width, layout.PanelHeight).Render(head + "\n" + m.panel.View())
}

func (m model) renderInput(t theme, layout uiLayout) string {
	line := m.input.View()
	if m.controller.Pipeline().Busy() {
		line = t.inputPrompt.Render(m.input.Prompt) + m.spinner.View() + t.panelSubtle.Render(" waiting for backend")
	}
	return sizedStyle(t.inputBox, layout.Width, layout.InputHeight).Render(line)
}

// renderTranscript lays out numbered lines with a fixed-width gutter. Continuation
// rows of a wrapped or multi-line unit leave the gutter blank.
func renderTranscript(t theme, lines []render.Line, width int) string {
	contentWidth := maxInt(10, width-gutterWidth-1)
	rows := make([]string, 0, len(lines))
	for _, line := range lines {
		gutter := t.gutter.Render(fmt.Sprintf("%*d", gutterWidth-1, line.Number) + " ")
		content := strings.Join(markup.ToText(line.Markup), "\n")
		rendered := lineStyle(t, line).Width(contentWidth).Render(content)
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, gutter, " ", rendered))
	}
	return strings.Join(rows, "\n")
}

func lineStyle(t theme, line render.Line) lipgloss.Style {
	var style lipgloss.Style
	switch line.Kind {
	case render.KindEcho:
		style = t.lineEcho
	case render.KindSystem:
		style = t.lineSystem
	case render.KindError:
		style = t.lineError
	default:
		style = t.lineOutput
	}
	if hint := markup.ColorHint(line.Markup); hint != "" && line.Kind != render.KindEcho {
		style = style.Foreground(lipgloss.Color(hint))
	}
	return style
}

func renderPanel(t theme, panel render.Panel) string {
	switch {
	case panel.Stale:
		return t.panelWarn.Render("Last response carried no state.")
	case panel.Empty():
		return t.panelSubtle.Render("No state yet.")
	default:
		return render.Highlight(panel.Content)
	}
}

func endpointHost(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return fallbackText(raw, "unset")
	}
	return parsed.Host
}

func fallbackText(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func fillLine(left, right string, width int) string {
	if width <= 0 {
		return strings.TrimSpace(left + " " + right)
	}
	lw := lipgloss.Width(left)
	rw := lipgloss.Width(right)
	if lw+rw+1 > width {
		return trimToWidth(left+" "+right, width)
	}
	return left + strings.Repeat(" ", width-lw-rw) + right
}

func trimToWidth(value string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= width {
		return string(runes)
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func sizedStyle(style lipgloss.Style, width, height int) lipgloss.Style {
	contentWidth := maxInt(1, width-style.GetHorizontalFrameSize())
	contentHeight := maxInt(1, height-style.GetVerticalFrameSize())
	return style.Width(contentWidth).Height(contentHeight)
}

func innerWidth(style lipgloss.Style, width int) int {
	return maxInt(1, width-style.GetHorizontalFrameSize())
}
