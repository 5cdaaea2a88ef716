package tui

const (
	compactWidthBreakpoint = 100
	gutterWidth            = 5
)

type uiLayout struct {
	Width  int
	Height int

	Compact bool

	HeaderHeight int
	InputHeight  int
	FooterHeight int
	BodyHeight   int

	TerminalWidth int
	PanelWidth    int
	// PanelHeight is only used in compact mode, where the panel stacks below the terminal.
	PanelHeight int
}

func computeLayout(width, height int, showPanel bool) uiLayout {
	if width < 40 {
		width = 40
	}
	if height < 12 {
		height = 12
	}

	layout := uiLayout{
		Width:        width,
		Height:       height,
		HeaderHeight: 3,
		InputHeight:  2,
		FooterHeight: 1,
	}
	layout.BodyHeight = maxInt(4, height-layout.HeaderHeight-layout.InputHeight-layout.FooterHeight)
	layout.TerminalWidth = width

	if !showPanel {
		return layout
	}
	layout.Compact = width < compactWidthBreakpoint
	if layout.Compact {
		layout.PanelWidth = width
		layout.PanelHeight = maxInt(3, layout.BodyHeight/3)
		layout.BodyHeight = maxInt(3, layout.BodyHeight-layout.PanelHeight)
		return layout
	}
	layout.PanelWidth = clampInt(width*35/100, 30, 60)
	layout.TerminalWidth = maxInt(30, width-layout.PanelWidth)
	layout.PanelHeight = layout.BodyHeight
	return layout
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
