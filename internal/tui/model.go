package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/dwizi/ops-console/internal/config"
	"github.com/dwizi/ops-console/internal/console"
	"github.com/dwizi/ops-console/internal/health"
	"github.com/dwizi/ops-console/internal/history"
	"github.com/dwizi/ops-console/internal/session"
)

type jobDoneMsg struct {
	result console.Result
}

// credentialMsg carries either a raw value to classify or an already resolved credential.
type credentialMsg struct {
	value    string
	resolved session.Credential
}

type refreshMsg struct {
	command string
}

type model struct {
	ctx        context.Context
	cfg        config.Config
	logger     *slog.Logger
	controller *console.Controller
	services   *health.Registry

	input    textinput.Model
	terminal viewport.Model
	panel    viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	width     int
	height    int
	showPanel bool
	quitting  bool

	renderedVersion uint64
	forceRender     bool
	renderedPanel   uint64
}

func newModel(ctx context.Context, cfg config.Config, controller *console.Controller, logger *slog.Logger) model {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t := newTheme()

	input := textinput.New()
	input.Placeholder = "type a command"
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = t.spinner

	m := model{
		ctx:             ctx,
		cfg:             cfg,
		logger:          logger.With("component", "tui"),
		controller:      controller,
		input:           input,
		terminal:        viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
		panel:           viewport.New(viewport.WithWidth(40), viewport.WithHeight(20)),
		spinner:         spin,
		help:            help.New(),
		keys:            newKeyMap(),
		width:           120,
		height:          36,
		showPanel:       true,
		forceRender:     true,
	}
	m.syncInput()
	m.resizeWidgets()
	m.refreshContent()
	return m
}

// Program runs the console TUI and accepts events from background services.
type Program struct {
	program *tea.Program
}

type Option func(*model)

// WithServices shows the background services' overall state in the header.
func WithServices(registry *health.Registry) Option {
	return func(m *model) {
		m.services = registry
	}
}

func New(ctx context.Context, cfg config.Config, controller *console.Controller, logger *slog.Logger, opts ...Option) *Program {
	m := newModel(ctx, cfg, controller, logger)
	for _, opt := range opts {
		opt(&m)
	}
	return &Program{
		program: tea.NewProgram(m, tea.WithContext(ctx)),
	}
}

// Run blocks until the operator quits or ctx is cancelled.
func (p *Program) Run() error {
	_, err := p.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

func (p *Program) SendCredential(value string) {
	p.program.Send(credentialMsg{value: value})
}

// SignIn delivers a credential resolved from flags or environment.
func (p *Program) SignIn(credential session.Credential) {
	p.program.Send(credentialMsg{resolved: credential})
}

func (p *Program) RequestRefresh(command string) {
	p.program.Send(refreshMsg{command: command})
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeWidgets()
		m.forceRender = true
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(typed)
	case jobDoneMsg:
		m.controller.Settle(typed.result)
	case credentialMsg:
		if typed.resolved.Valid() {
			cmd = m.runJob(m.controller.SignIn(typed.resolved))
		} else {
			cmd = m.runJob(m.controller.ReceiveCredential(typed.value))
		}
	case refreshMsg:
		cmd = m.runJob(m.controller.Refresh(typed.command))
	case tea.KeyPressMsg:
		var quit bool
		m, cmd, quit = m.handleKey(typed)
		if quit {
			return m, cmd
		}
	default:
		m.input, cmd = m.input.Update(msg)
	}
	m.syncInput()
	m.refreshContent()
	return m, cmd
}

func (m model) handleKey(msg tea.KeyPressMsg) (model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit, true
	case key.Matches(msg, m.keys.Logout):
		if m.controller.State() != console.LoggedOut {
			m.controller.Logout("Signed out.")
			m.input.SetValue("")
		}
		return m, nil, false
	case key.Matches(msg, m.keys.Clear):
		m.controller.Clear()
		m.forceRender = true
		return m, nil, false
	case key.Matches(msg, m.keys.TogglePanel):
		m.showPanel = !m.showPanel
		m.resizeWidgets()
		m.forceRender = true
		return m, nil, false
	case key.Matches(msg, m.keys.ScrollUp):
		m.terminal.PageUp()
		return m, nil, false
	case key.Matches(msg, m.keys.ScrollDown):
		m.terminal.PageDown()
		return m, nil, false
	case key.Matches(msg, m.keys.HistoryUp), key.Matches(msg, m.keys.HistoryDown):
		if m.controller.HistoryLen() == 0 {
			return m, nil, false
		}
		direction := history.Up
		if key.Matches(msg, m.keys.HistoryDown) {
			direction = history.Down
		}
		result := m.controller.Navigate(direction)
		switch {
		case result.Clear:
			m.input.SetValue("")
		case result.Found:
			m.input.SetValue(result.Text)
			m.input.CursorEnd()
		}
		return m, nil, false
	case key.Matches(msg, m.keys.Submit):
		value := m.input.Value()
		m.input.SetValue("")
		if m.controller.State() == console.LoggedOut {
			return m, m.runJob(m.controller.ReceiveCredential(value)), false
		}
		return m, m.runJob(m.controller.Submit(value)), false
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// runJob runs a dispatch off the event loop. There is no client-side timeout; ctx
// only ends with the process.
func (m model) runJob(job console.Job) tea.Cmd {
	if job == nil {
		return nil
	}
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return func() tea.Msg {
		return jobDoneMsg{result: job(ctx)}
	}
}

// syncInput mirrors controller state onto the input line: masked while signing in,
// blurred while a dispatch is in flight.
func (m *model) syncInput() {
	state := m.controller.State()
	switch state {
	case console.LoggedOut:
		m.input.EchoMode = textinput.EchoPassword
		m.input.Prompt = "credential> "
		m.input.Placeholder = "paste token or passkey"
	default:
		m.input.EchoMode = textinput.EchoNormal
		m.input.Prompt = strings.TrimSpace(m.cfg.Prompt) + " "
		if strings.TrimSpace(m.cfg.Prompt) == "" {
			m.input.Prompt = "> "
		}
		m.input.Placeholder = "type a command"
	}
	if state == console.Busy || state == console.Authenticating {
		m.input.Blur()
		return
	}
	if !m.input.Focused() {
		m.input.Focus()
	}
}

func (m *model) resizeWidgets() {
	t := newTheme()
	layout := computeLayout(m.width, m.height, m.showPanel)
	m.terminal.SetWidth(layout.TerminalWidth)
	m.terminal.SetHeight(layout.BodyHeight)
	if m.showPanel {
		m.panel.SetWidth(innerWidth(t.panelBox, layout.PanelWidth))
		m.panel.SetHeight(maxInt(1, layout.PanelHeight-1))
	}
	m.input.SetWidth(maxInt(10, innerWidth(t.inputBox, layout.Width)-lipgloss.Width(m.input.Prompt)-2))
	m.help.SetWidth(layout.Width)
}

// refreshContent redraws the transcript and panel when they changed and honours a
// pending scroll-to-bottom.
func (m *model) refreshContent() {
	t := newTheme()
	pipeline := m.controller.Pipeline()
	if version := pipeline.Version(); version != m.renderedVersion || m.forceRender {
		m.terminal.SetContent(renderTranscript(t, pipeline.Lines(), m.terminal.Width()))
		m.renderedVersion = version
		m.forceRender = false
	}
	if pipeline.TakeScroll() {
		m.terminal.GotoBottom()
	}
	panel := pipeline.Panel()
	if panel.Revision != m.renderedPanel || panel.Revision == 0 {
		m.panel.SetContent(renderPanel(t, panel))
		m.renderedPanel = panel.Revision
	}
}

func (m model) View() tea.View {
	v := tea.NewView(m.renderView())
	v.AltScreen = true
	return v
}
