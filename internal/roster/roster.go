package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dwizi/ops-console/internal/consoleerr"
	"github.com/dwizi/ops-console/internal/dispatch"
	"github.com/dwizi/ops-console/internal/session"
)

type Mode string

const (
	ModeList   Mode = ""
	ModeAdd    Mode = "Add"
	ModeRemove Mode = "Remove"
)

const statusSuccess = "Success"

const maxParallel = 4

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Fetcher interface {
	Fetch(ctx context.Context, input dispatch.Request) (dispatch.RawResponse, error)
}

// CredentialSource returns the current credential; session.Store.Credential fits.
type CredentialSource func() (session.Credential, bool)

// Outcome is the settled result of one roster call.
type Outcome struct {
	Mode    Mode
	Email   string
	Success bool
	Message string
	// Echoed is set when the backend returned the updated list.
	Echoed bool
	Emails []string
	Err    error
}

type response struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Emails  *[]string `json:"emails"`
}

type emailsParam struct {
	Mode   Mode     `json:"mode"`
	Emails []string `json:"emails"`
}

// Roster is the locally displayed email allow-list. The backend is authoritative;
// local state only changes after a call settles.
type Roster struct {
	mu         sync.RWMutex
	emails     []string
	fetcher    Fetcher
	credential CredentialSource
	logger     *slog.Logger
}

func New(fetcher Fetcher, credential CredentialSource, logger *slog.Logger) *Roster {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Roster{
		fetcher:    fetcher,
		credential: credential,
		logger:     logger.With("component", "roster"),
	}
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

func (r *Roster) Emails() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.emails)
}

// Sync replaces the local roster with the backend's list.
func (r *Roster) Sync(ctx context.Context) Outcome {
	outcome := r.call(ctx, ModeList, "")
	r.apply(outcome)
	return outcome
}

func (r *Roster) Add(ctx context.Context, email string) Outcome {
	return r.mutate(ctx, ModeAdd, email)
}

func (r *Roster) Remove(ctx context.Context, email string) Outcome {
	return r.mutate(ctx, ModeRemove, email)
}

// AddMany adds a comma-separated list. Invalid addresses fail locally; the rest are
// submitted concurrently and applied in input order.
func (r *Roster) AddMany(ctx context.Context, list string) []Outcome {
	var emails []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			emails = append(emails, part)
		}
	}
	outcomes := make([]Outcome, len(emails))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallel)
	for i, email := range emails {
		if !ValidEmail(email) {
			outcomes[i] = invalid(ModeAdd, email)
			continue
		}
		group.Go(func() error {
			outcomes[i] = r.call(groupCtx, ModeAdd, email)
			return nil
		})
	}
	_ = group.Wait()
	for _, outcome := range outcomes {
		r.apply(outcome)
	}
	return outcomes
}

func (r *Roster) mutate(ctx context.Context, mode Mode, email string) Outcome {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return invalid(mode, email)
	}
	outcome := r.call(ctx, mode, email)
	r.apply(outcome)
	return outcome
}

func (r *Roster) call(ctx context.Context, mode Mode, email string) Outcome {
	outcome := Outcome{Mode: mode, Email: email}
	credential, ok := session.Credential{}, false
	if r.credential != nil {
		credential, ok = r.credential()
	}
	if !ok {
		outcome.Err = consoleerr.New(consoleerr.ErrAuthRequired, "not authenticated")
		return outcome
	}

	param := emailsParam{Mode: mode, Emails: []string{}}
	if email != "" {
		param.Emails = []string{email}
	}
	encoded, err := json.Marshal(param)
	if err != nil {
		outcome.Err = fmt.Errorf("encode emails param: %w", err)
		return outcome
	}
	raw, err := r.fetcher.Fetch(ctx, dispatch.Request{
		Credential: credential,
		Extra:      url.Values{"emails": []string{string(encoded)}},
	})
	if err != nil {
		outcome.Err = err
		return outcome
	}

	var decoded response
	if err := json.Unmarshal([]byte(raw.Body), &decoded); err != nil {
		outcome.Err = &consoleerr.Failure{Kind: consoleerr.ErrParse, Message: "roster response is not JSON", Status: raw.StatusCode}
		return outcome
	}
	outcome.Success = raw.OK() && decoded.Status == statusSuccess
	outcome.Message = decoded.Message
	if decoded.Emails != nil {
		outcome.Echoed = true
		outcome.Emails = slices.Clone(*decoded.Emails)
	}
	if !outcome.Success && outcome.Message == "" {
		outcome.Message = fmt.Sprintf("roster %s failed: %s", modeLabel(mode), strings.TrimSpace(raw.Status))
	}
	r.logger.Info("roster call settled",
		"mode", modeLabel(mode),
		"success", outcome.Success,
		"echoed", outcome.Echoed,
		"request_id", raw.RequestID,
	)
	return outcome
}

// apply adopts an echoed list whenever one is present, success or not. Without an echo
// only a successful call changes local state.
func (r *Roster) apply(outcome Outcome) {
	if outcome.Err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if outcome.Echoed {
		r.emails = dedupe(outcome.Emails)
		return
	}
	if !outcome.Success {
		return
	}
	switch outcome.Mode {
	case ModeAdd:
		if !slices.Contains(r.emails, outcome.Email) {
			r.emails = append(r.emails, outcome.Email)
		}
	case ModeRemove:
		r.emails = slices.DeleteFunc(r.emails, func(existing string) bool { return existing == outcome.Email })
	}
}

func invalid(mode Mode, email string) Outcome {
	return Outcome{
		Mode:  mode,
		Email: email,
		Err:   consoleerr.New(consoleerr.ErrValidation, fmt.Sprintf("%q is not a valid email address", email)),
	}
}

func dedupe(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		if !slices.Contains(out, email) {
			out = append(out, email)
		}
	}
	return out
}

func modeLabel(mode Mode) string {
	if mode == ModeList {
		return "list"
	}
	return strings.ToLower(string(mode))
}
