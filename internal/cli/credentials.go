package cli

import (
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/dwizi/ops-console/internal/config"
	"github.com/dwizi/ops-console/internal/consoleerr"
	"github.com/dwizi/ops-console/internal/credwatch"
	"github.com/dwizi/ops-console/internal/session"
	"github.com/dwizi/ops-console/internal/signature"
)

// connectionFlags override the OPSCONSOLE_* environment for one invocation.
type connectionFlags struct {
	endpoint  string
	token     string
	tokenFile string
	secret    string
}

func (f *connectionFlags) bind(set *pflag.FlagSet) {
	set.StringVar(&f.endpoint, "endpoint", "", "backend endpoint url (defaults to OPSCONSOLE_ENDPOINT_URL)")
	set.StringVar(&f.token, "token", "", "federated ID token (defaults to OPSCONSOLE_TOKEN)")
	set.StringVar(&f.tokenFile, "token-file", "", "file holding the ID token (defaults to OPSCONSOLE_TOKEN_FILE)")
	set.StringVar(&f.secret, "secret", "", "shared passkey used to sign requests (defaults to OPSCONSOLE_SECRET)")
}

func (f connectionFlags) apply(cfg config.Config) config.Config {
	if value := strings.TrimSpace(f.endpoint); value != "" {
		if cfg.RosterURL == cfg.EndpointURL {
			cfg.RosterURL = value
		}
		cfg.EndpointURL = value
	}
	if value := strings.TrimSpace(f.token); value != "" {
		cfg.Token = value
	}
	if value := strings.TrimSpace(f.tokenFile); value != "" {
		cfg.TokenFile = value
	}
	if f.secret != "" {
		cfg.Secret = f.secret
	}
	return cfg
}

// resolveCredential picks the non-interactive credential: a token wins over a token
// file, which wins over a signed secret.
func resolveCredential(cfg config.Config, now time.Time) (session.Credential, error) {
	if token := strings.TrimSpace(cfg.Token); token != "" {
		return session.Token(token), nil
	}
	if path := strings.TrimSpace(cfg.TokenFile); path != "" {
		token, err := credwatch.ReadCredential(path)
		if err != nil {
			return session.Credential{}, consoleerr.New(consoleerr.ErrAuthRequired, "read token file: "+err.Error())
		}
		if token != "" {
			return session.Token(token), nil
		}
	}
	if cfg.Secret != "" {
		signed, err := signature.SignAt(cfg.Secret, now)
		if err != nil {
			return session.Credential{}, err
		}
		return session.Signature(signed), nil
	}
	return session.Credential{}, consoleerr.New(consoleerr.ErrAuthRequired, "no credential: pass --token, --token-file or --secret")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
