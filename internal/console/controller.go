package console

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dwizi/ops-console/internal/consoleerr"
	"github.com/dwizi/ops-console/internal/dispatch"
	"github.com/dwizi/ops-console/internal/history"
	"github.com/dwizi/ops-console/internal/identity"
	"github.com/dwizi/ops-console/internal/render"
	"github.com/dwizi/ops-console/internal/session"
	"github.com/dwizi/ops-console/internal/signature"
)

type State int

const (
	LoggedOut State = iota
	Authenticating
	Active
	Busy
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case Authenticating:
		return "authenticating"
	case Active:
		return "active"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

type Dispatcher interface {
	Dispatch(ctx context.Context, commandText string, credential session.Credential) (dispatch.Envelope, error)
}

type Options struct {
	Dispatcher Dispatcher
	Prompt     string
	// RequireVerification keeps a new credential in Authenticating until the backend
	// accepts VerifyCommand with it.
	RequireVerification bool
	VerifyCommand       string
	Signer              *signature.Signer
	Logger              *slog.Logger
	Now                 func() time.Time
}

// Controller is the console state machine. It owns the session, history and render
// pipeline and must be driven from a single goroutine; blocking work is handed out
// as Jobs whose Results come back through Settle.
type Controller struct {
	state         State
	session       *session.Store
	history       *history.Buffer
	pipeline      *render.Pipeline
	dispatcher    Dispatcher
	signer        *signature.Signer
	requireVerify bool
	verifyCommand string
	claims        identity.Claims
	hasClaims     bool
	pending       string
	generation    uint64
	logger        *slog.Logger
	now           func() time.Time
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	signer := opts.Signer
	if signer == nil {
		signer = signature.NewSigner(now)
	}
	verifyCommand := strings.TrimSpace(opts.VerifyCommand)
	if verifyCommand == "" {
		verifyCommand = "state"
	}
	c := &Controller{
		state:         LoggedOut,
		session:       session.NewStore(),
		history:       history.New(),
		pipeline:      render.New(opts.Prompt),
		dispatcher:    opts.Dispatcher,
		signer:        signer,
		requireVerify: opts.RequireVerification,
		verifyCommand: verifyCommand,
		logger:        logger.With("component", "console"),
		now:           now,
	}
	c.pipeline.RenderText("Initializing ops console...", render.KindSystem)
	c.pipeline.RenderText("Authentication required. Please sign in.", render.KindSystem)
	return c
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Pipeline() *render.Pipeline {
	return c.pipeline
}

func (c *Controller) Session() *session.Store {
	return c.session
}

func (c *Controller) HistoryLen() int {
	return c.history.Len()
}

// Identity returns the unverified claims of the current token, when it has any.
func (c *Controller) Identity() (identity.Claims, bool) {
	return c.claims, c.hasClaims
}

// ReceiveCredential accepts an externally obtained credential. A value that parses as
// a JWT is used as a bearer token; anything else is a passkey and is signed before
// use, so the raw passkey never leaves the process.
func (c *Controller) ReceiveCredential(raw string) Job {
	raw = strings.TrimSpace(raw)
	switch c.state {
	case Active, Busy:
		return c.rotateCredential(raw)
	case Authenticating:
		// Applied once verification settles.
		c.pending = raw
		return nil
	}
	credential, claims, hasClaims, err := c.resolveCredential(raw)
	if err != nil {
		c.pipeline.RenderFailure(err)
		return nil
	}
	return c.authenticate(credential, claims, hasClaims)
}

// SignIn authenticates with a credential resolved elsewhere, such as an explicit
// --token flag whose value need not be a JWT.
func (c *Controller) SignIn(credential session.Credential) Job {
	if c.state != LoggedOut {
		return nil
	}
	if !credential.Valid() {
		c.pipeline.RenderFailure(consoleerr.New(consoleerr.ErrValidation, "no credential provided"))
		return nil
	}
	var claims identity.Claims
	hasClaims := false
	if credential.Kind == session.KindToken {
		claims, hasClaims = identity.Peek(credential.Value)
		if hasClaims && claims.Expired(c.now()) {
			c.pipeline.RenderFailure(expiredFailure(claims))
			return nil
		}
	}
	return c.authenticate(credential, claims, hasClaims)
}

func (c *Controller) authenticate(credential session.Credential, claims identity.Claims, hasClaims bool) Job {
	c.generation++
	c.state = Authenticating
	c.session.SetCredential(credential)
	c.claims, c.hasClaims = claims, hasClaims
	c.logger.Info("credential received", "kind", string(credential.Kind), "verify", c.requireVerify)

	if !c.requireVerify || c.dispatcher == nil {
		c.activate()
		return nil
	}
	c.pipeline.RenderText("Authenticating...", render.KindSystem)
	c.pipeline.SetBusy(true)
	return c.job(PurposeVerify, c.verifyCommand, credential)
}

// Submit handles one line of operator input. It returns nil when there is nothing to
// run: empty input, a built-in command, or a submit while a dispatch is in flight.
func (c *Controller) Submit(raw string) Job {
	switch c.state {
	case Busy, Authenticating:
		return nil
	case LoggedOut:
		if strings.TrimSpace(raw) != "" {
			c.pipeline.RenderFailure(consoleerr.New(consoleerr.ErrAuthRequired, "not authenticated"))
		}
		return nil
	}
	command, ok := history.NewCommand(raw, c.now())
	if !ok {
		return nil
	}
	c.history.Push(command.Text)

	if builtin, ok := lookupBuiltin(command.Text); ok {
		builtin(c, command)
		return nil
	}

	credential, ok := c.session.Credential()
	if !ok {
		c.Logout("Session expired.")
		return nil
	}
	c.pipeline.RenderCommandEcho(command.Text)
	c.state = Busy
	c.pipeline.SetBusy(true)
	return c.job(PurposeCommand, command.Text, credential)
}

// Refresh builds a background dispatch whose only effect is the side panel. It may
// race an operator dispatch; panel writes are last-write-wins.
func (c *Controller) Refresh(command string) Job {
	command = strings.TrimSpace(command)
	if command == "" || (c.state != Active && c.state != Busy) {
		return nil
	}
	credential, ok := c.session.Credential()
	if !ok {
		return nil
	}
	return c.job(PurposeRefresh, command, credential)
}

// Settle applies the outcome of a Job. Results from before the latest login or
// logout are dropped.
func (c *Controller) Settle(result Result) {
	if result.Generation != c.generation {
		c.logger.Debug("dropping result from previous session", "purpose", result.Purpose.String())
		return
	}
	switch result.Purpose {
	case PurposeVerify:
		c.settleVerify(result)
	case PurposeCommand:
		c.settleCommand(result)
	case PurposeRefresh:
		c.settleRefresh(result)
	}
}

// Navigate moves through command history. Navigation is a no-op unless the console
// is accepting commands.
func (c *Controller) Navigate(direction history.Direction) history.Result {
	if c.state != Active {
		return history.Result{}
	}
	return c.history.Navigate(direction)
}

// Logout enters LoggedOut from any state, clearing the session, history, panel and
// the transcript of authenticated output.
func (c *Controller) Logout(reason string) {
	c.logout(reason, nil)
}

// logout renders cause, if any, on the fresh transcript so the operator still sees
// why the session ended.
func (c *Controller) logout(reason string, cause error) {
	c.generation++
	c.state = LoggedOut
	c.session.Clear()
	c.history.Reset()
	c.pipeline.Reset()
	c.pipeline.ClearPanel()
	c.pipeline.SetBusy(false)
	c.claims, c.hasClaims = identity.Claims{}, false
	c.pending = ""
	if cause != nil {
		c.pipeline.RenderFailure(cause)
	}
	if strings.TrimSpace(reason) != "" {
		c.pipeline.RenderText(reason, render.KindSystem)
	}
	c.pipeline.RenderText("Authentication required. Please sign in.", render.KindSystem)
	c.logger.Info("logged out")
}

// Clear empties the terminal view. History and the panel are kept.
func (c *Controller) Clear() {
	c.pipeline.Reset()
}

func (c *Controller) settleVerify(result Result) {
	if c.state != Authenticating {
		return
	}
	c.pipeline.SetBusy(false)
	if result.Err != nil {
		c.logger.Warn("credential verification failed", "error", result.Err)
		c.logout("Verification failed.", result.Err)
		return
	}
	c.activate()
	if result.Envelope.ExpectsState() {
		c.pipeline.ApplyState(result.Envelope.State)
	}
	if pending := c.pending; pending != "" {
		c.pending = ""
		c.rotateCredential(pending)
	}
}

func (c *Controller) settleCommand(result Result) {
	if c.state != Busy {
		return
	}
	c.pipeline.SetBusy(false)
	c.state = Active
	if result.Err != nil {
		c.logger.Warn("command failed", "command", result.Command, "error", result.Err)
		if consoleerr.ForcesLogout(result.Err) {
			c.logout("", result.Err)
			return
		}
		c.pipeline.RenderFailure(result.Err)
		return
	}
	c.pipeline.RenderResponse(result.Envelope)
}

func (c *Controller) settleRefresh(result Result) {
	if result.Err != nil {
		c.logger.Warn("background refresh failed", "command", result.Command, "error", result.Err)
		if consoleerr.ForcesLogout(result.Err) {
			c.logout("", result.Err)
		}
		return
	}
	if result.Envelope.ExpectsState() {
		c.pipeline.ApplyState(result.Envelope.State)
	}
}

func (c *Controller) activate() {
	c.state = Active
	c.pipeline.SetBusy(false)
	message := "Authentication successful. System Ready."
	if c.hasClaims {
		message = "Authentication successful. Signed in as " + c.claims.Label() + ". System Ready."
	}
	c.pipeline.RenderText(message, render.KindSystem)
}

// rotateCredential swaps in a fresh token without leaving the session. Passkeys,
// unparseable values and expired or unchanged tokens are ignored.
func (c *Controller) rotateCredential(raw string) Job {
	claims, ok := identity.Peek(raw)
	if !ok || claims.Expired(c.now()) {
		return nil
	}
	if current, set := c.session.Credential(); set && current.Kind == session.KindToken && current.Value == raw {
		return nil
	}
	if !c.session.SetCredential(session.Token(raw)) {
		return nil
	}
	c.claims, c.hasClaims = claims, hasClaims
	c.logger.Info("credential rotated")
	c.pipeline.RenderText("Credential refreshed.", render.KindSystem)
	return nil
}

func (c *Controller) resolveCredential(raw string) (session.Credential, identity.Claims, bool, error) {
	if raw == "" {
		return session.Credential{}, identity.Claims{}, false, consoleerr.New(consoleerr.ErrValidation, "no credential provided")
	}
	if claims, ok := identity.Peek(raw); ok {
		if claims.Expired(c.now()) {
			return session.Credential{}, identity.Claims{}, false, expiredFailure(claims)
		}
		return session.Token(raw), claims, true, nil
	}
	signed, err := c.signer.Sign(raw)
	if err != nil {
		return session.Credential{}, identity.Claims{}, false, err
	}
	return session.Signature(signed), identity.Claims{}, false, nil
}

func expiredFailure(claims identity.Claims) error {
	return consoleerr.New(consoleerr.ErrValidation, "token expired at "+claims.ExpiresAt.Format(time.RFC3339))
}

func (c *Controller) job(purpose Purpose, command string, credential session.Credential) Job {
	generation := c.generation
	dispatcher := c.dispatcher
	return func(ctx context.Context) Result {
		result := Result{Purpose: purpose, Command: command, Generation: generation}
		if dispatcher == nil {
			result.Err = consoleerr.New(consoleerr.ErrNetwork, "no dispatcher configured")
			return result
		}
		result.Envelope, result.Err = dispatcher.Dispatch(ctx, command, credential)
		return result
	}
}
