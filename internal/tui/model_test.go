package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/dwizi/ops-console/internal/config"
	"github.com/dwizi/ops-console/internal/console"
	"github.com/dwizi/ops-console/internal/dispatch"
	"github.com/dwizi/ops-console/internal/health"
	"github.com/dwizi/ops-console/internal/session"
)

type stubDispatcher struct {
	body  string
	calls []string
}

func (s *stubDispatcher) Dispatch(_ context.Context, commandText string, _ session.Credential) (dispatch.Envelope, error) {
	s.calls = append(s.calls, commandText)
	return dispatch.Classify(s.body), nil
}

func keyPress(code rune, text string, mods ...tea.KeyMod) tea.KeyPressMsg {
	var mod tea.KeyMod
	for _, item := range mods {
		mod |= item
	}
	return tea.KeyPressMsg(tea.Key{
		Code: code,
		Text: text,
		Mod:  mod,
	})
}

func newTestModel(dispatcher *stubDispatcher) model {
	cfg := config.Config{
		Environment: "test",
		EndpointURL: "https://backend.test/exec",
		Prompt:      ">",
	}
	controller := console.New(console.Options{Dispatcher: dispatcher, Prompt: cfg.Prompt})
	m := newModel(context.Background(), cfg, controller, nil)
	m.width = 140
	m.height = 48
	m.resizeWidgets()
	return m
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	typed, ok := updated.(model)
	if !ok {
		t.Fatalf("unexpected model type %T", updated)
	}
	return typed, cmd
}

func submit(t *testing.T, m model, text string) (model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	return update(t, m, keyPress(tea.KeyEnter, ""))
}

func signIn(t *testing.T, m model) model {
	t.Helper()
	m, cmd := submit(t, m, "header.payload.sig")
	if cmd != nil {
		t.Fatal("expected sign-in without verification to need no command")
	}
	if m.controller.State() != console.Active {
		t.Fatalf("expected active, got %s", m.controller.State())
	}
	return m
}

func TestLoginPromptMasksInput(t *testing.T) {
	m := newTestModel(&stubDispatcher{})
	if m.input.Prompt != "credential> " {
		t.Fatalf("expected credential prompt, got %q", m.input.Prompt)
	}
	m = signIn(t, m)
	if m.input.Prompt != "> " {
		t.Fatalf("expected command prompt, got %q", m.input.Prompt)
	}
}

func TestSubmitRunsDispatchAndRendersResponse(t *testing.T) {
	dispatcher := &stubDispatcher{body: `{"htmlResponse":"<p>OK</p>","jsonData":{"x":1}}`}
	m := signIn(t, newTestModel(dispatcher))

	m, cmd := submit(t, m, "status")
	if cmd == nil {
		t.Fatal("expected dispatch command")
	}
	if m.controller.State() != console.Busy || m.input.Focused() {
		t.Fatal("expected busy state with blurred input")
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input cleared, got %q", m.input.Value())
	}

	msg := cmd()
	done, ok := msg.(jobDoneMsg)
	if !ok {
		t.Fatalf("expected jobDoneMsg, got %T", msg)
	}
	m, _ = update(t, m, done)
	if m.controller.State() != console.Active || !m.input.Focused() {
		t.Fatal("expected active state with focused input")
	}
	if !strings.Contains(m.terminal.GetContent(), "OK") {
		t.Fatalf("expected response in transcript, got %q", m.terminal.GetContent())
	}
	if !strings.Contains(m.panel.GetContent(), "x") {
		t.Fatalf("expected state panel content, got %q", m.panel.GetContent())
	}
	if len(dispatcher.calls) != 1 || dispatcher.calls[0] != "status" {
		t.Fatalf("unexpected dispatches: %v", dispatcher.calls)
	}
}

func TestHistoryKeysRecallCommands(t *testing.T) {
	m := signIn(t, newTestModel(&stubDispatcher{body: `"<p>ok</p>"`}))
	for _, text := range []string{"first", "second"} {
		var cmd tea.Cmd
		m, cmd = submit(t, m, text)
		m, _ = update(t, m, cmd())
	}

	m, _ = update(t, m, keyPress(tea.KeyUp, ""))
	if m.input.Value() != "second" {
		t.Fatalf("expected second, got %q", m.input.Value())
	}
	m, _ = update(t, m, keyPress(tea.KeyUp, ""))
	if m.input.Value() != "first" {
		t.Fatalf("expected first, got %q", m.input.Value())
	}
	m, _ = update(t, m, keyPress(tea.KeyDown, ""))
	m, _ = update(t, m, keyPress(tea.KeyDown, ""))
	if m.input.Value() != "" {
		t.Fatalf("expected cleared input, got %q", m.input.Value())
	}
}

func TestLogoutKeyReturnsToLogin(t *testing.T) {
	m := signIn(t, newTestModel(&stubDispatcher{}))
	m, _ = update(t, m, keyPress('d', "", tea.ModCtrl))
	if m.controller.State() != console.LoggedOut {
		t.Fatalf("expected logged out, got %s", m.controller.State())
	}
	if m.input.Prompt != "credential> " {
		t.Fatalf("expected credential prompt, got %q", m.input.Prompt)
	}
}

func TestTabTogglesPanel(t *testing.T) {
	m := newTestModel(&stubDispatcher{})
	if !m.showPanel {
		t.Fatal("expected panel shown initially")
	}
	m, _ = update(t, m, keyPress(tea.KeyTab, ""))
	if m.showPanel {
		t.Fatal("expected panel hidden")
	}
	if m.terminal.Width() != 140 {
		t.Fatalf("expected full-width terminal, got %d", m.terminal.Width())
	}
}

func TestCredentialMessageSignsIn(t *testing.T) {
	m := newTestModel(&stubDispatcher{})
	m, _ = update(t, m, credentialMsg{value: "from.file.token"})
	if m.controller.State() != console.Active {
		t.Fatalf("expected active, got %s", m.controller.State())
	}
}

func TestRefreshMessageUpdatesPanel(t *testing.T) {
	dispatcher := &stubDispatcher{body: `{"htmlResponse":"","jsonData":{"refreshed":true}}`}
	m := signIn(t, newTestModel(dispatcher))
	m, cmd := update(t, m, refreshMsg{command: "state"})
	if cmd == nil {
		t.Fatal("expected refresh command")
	}
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.panel.GetContent(), "refreshed") {
		t.Fatalf("expected refreshed panel, got %q", m.panel.GetContent())
	}
}

func TestWindowResizeUpdatesDimensions(t *testing.T) {
	m := newTestModel(&stubDispatcher{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 52})
	if m.width != 160 || m.height != 52 {
		t.Fatalf("expected dimensions 160x52, got %dx%d", m.width, m.height)
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(&stubDispatcher{})
	m, cmd := update(t, m, keyPress('c', "", tea.ModCtrl))
	if !m.quitting || cmd == nil {
		t.Fatal("expected quit")
	}
	if view := m.renderView(); !strings.Contains(view, "closed") {
		t.Fatalf("unexpected view after quit: %q", view)
	}
}

func TestComputeLayoutCompact(t *testing.T) {
	layout := computeLayout(80, 30, true)
	if !layout.Compact || layout.PanelWidth != 80 || layout.TerminalWidth != 80 {
		t.Fatalf("unexpected compact layout: %+v", layout)
	}
	wide := computeLayout(160, 40, true)
	if wide.Compact || wide.TerminalWidth+wide.PanelWidth != 160 {
		t.Fatalf("unexpected wide layout: %+v", wide)
	}
}

func TestHeaderShowsServicesState(t *testing.T) {
	m := newTestModel(&stubDispatcher{})
	registry := health.NewRegistry()
	WithServices(registry)(&m)

	registry.Beat("refresh", "tick")
	if view := m.renderView(); !strings.Contains(view, "services: healthy") {
		t.Fatalf("expected healthy services chip, got %q", view)
	}
	registry.Degrade("credwatch", "watch failed", errors.New("boom"))
	if view := m.renderView(); !strings.Contains(view, "services: degraded") {
		t.Fatalf("expected degraded services chip, got %q", view)
	}
}

func TestResolvedCredentialMessageSignsIn(t *testing.T) {
	dispatcher := &stubDispatcher{body: `"<p>ok</p>"`}
	m := newTestModel(dispatcher)
	m, _ = update(t, m, credentialMsg{resolved: session.Token("opaque-access-token")})
	credential, ok := m.controller.Session().Credential()
	if !ok || credential.Kind != session.KindToken || credential.Value != "opaque-access-token" {
		t.Fatalf("expected explicit token kept as token, got %+v", credential)
	}
}

func TestLogoutRedrawsTranscript(t *testing.T) {
	m := signIn(t, newTestModel(&stubDispatcher{body: `"<p>classified</p>"`}))
	m, cmd := submit(t, m, "status")
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.terminal.GetContent(), "classified") {
		t.Fatalf("expected response in transcript, got %q", m.terminal.GetContent())
	}
	m, _ = update(t, m, keyPress('d', "", tea.ModCtrl))
	if strings.Contains(m.terminal.GetContent(), "classified") {
		t.Fatalf("expected transcript cleared after logout, got %q", m.terminal.GetContent())
	}
}
