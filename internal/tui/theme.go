package tui

import "charm.land/lipgloss/v2"

type theme struct {
	appBG lipgloss.Style

	brand lipgloss.Style

	headerBox lipgloss.Style
	headerSub lipgloss.Style

	chipInfo    lipgloss.Style
	chipWarn    lipgloss.Style
	chipError   lipgloss.Style
	chipSuccess lipgloss.Style

	gutter     lipgloss.Style
	lineEcho   lipgloss.Style
	lineOutput lipgloss.Style
	lineSystem lipgloss.Style
	lineError  lipgloss.Style

	panelBox    lipgloss.Style
	panelTitle  lipgloss.Style
	panelSubtle lipgloss.Style
	panelWarn   lipgloss.Style

	inputBox    lipgloss.Style
	inputPrompt lipgloss.Style

	footerBox  lipgloss.Style
	footerInfo lipgloss.Style

	spinner lipgloss.Style
}

func newTheme() theme {
	// Terminal-green on dark, close to the classic console palette.
	border := lipgloss.Color("236")
	text := lipgloss.Color("250")
	muted := lipgloss.Color("245")
	subtle := lipgloss.Color("240")
	accent := lipgloss.Color("75")
	echo := lipgloss.Color("84")
	success := lipgloss.Color("42")
	warn := lipgloss.Color("220")
	danger := lipgloss.Color("203")

	return theme{
		appBG: lipgloss.NewStyle().Foreground(text),
		brand: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		headerBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(border).
			Padding(0, 1),
		headerSub: lipgloss.NewStyle().Foreground(muted),

		chipInfo:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		chipWarn:    lipgloss.NewStyle().Bold(true).Foreground(warn),
		chipError:   lipgloss.NewStyle().Bold(true).Foreground(danger),
		chipSuccess: lipgloss.NewStyle().Bold(true).Foreground(success),

		gutter:     lipgloss.NewStyle().Foreground(subtle),
		lineEcho:   lipgloss.NewStyle().Bold(true).Foreground(echo),
		lineOutput: lipgloss.NewStyle().Foreground(text),
		lineSystem: lipgloss.NewStyle().Foreground(success),
		lineError:  lipgloss.NewStyle().Foreground(danger),

		panelBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(border).
			Padding(0, 1),
		panelTitle:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		panelSubtle: lipgloss.NewStyle().Foreground(muted),
		panelWarn:   lipgloss.NewStyle().Foreground(warn),

		inputBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(border).
			Padding(0, 1),
		inputPrompt: lipgloss.NewStyle().Bold(true).Foreground(echo),

		footerBox:  lipgloss.NewStyle().Padding(0, 1),
		footerInfo: lipgloss.NewStyle().Foreground(subtle),

		spinner: lipgloss.NewStyle().Bold(true).Foreground(warn),
	}
}
