package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("OPSCONSOLE_ENV", "")
	t.Setenv("OPSCONSOLE_ENDPOINT_URL", "")
	t.Setenv("OPSCONSOLE_ROSTER_URL", "")
	t.Setenv("OPSCONSOLE_HTTP_TIMEOUT_SECONDS", "")
	t.Setenv("OPSCONSOLE_TLS_SKIP_VERIFY", "")
	t.Setenv("OPSCONSOLE_REQUIRE_VERIFICATION", "")
	t.Setenv("OPSCONSOLE_REFRESH_SCHEDULE", "")
	t.Setenv("OPSCONSOLE_REFRESH_COMMAND", "")
	t.Setenv("OPSCONSOLE_PROMPT", "")

	cfg := FromEnv()
	if cfg.Environment != "development" {
		t.Fatalf("expected development environment, got %s", cfg.Environment)
	}
	if cfg.HTTPTimeoutSec != 0 {
		t.Fatalf("expected no client timeout by default, got %d", cfg.HTTPTimeoutSec)
	}
	if cfg.TLSSkipVerify {
		t.Fatal("expected tls verification on by default")
	}
	if cfg.RequireVerification {
		t.Fatal("expected token verification off by default")
	}
	if cfg.RefreshSchedule != "" {
		t.Fatalf("expected refresh disabled by default, got %s", cfg.RefreshSchedule)
	}
	if cfg.RefreshCommand != "state" {
		t.Fatalf("expected default refresh command state, got %s", cfg.RefreshCommand)
	}
	if cfg.Prompt != ">" {
		t.Fatalf("expected default prompt >, got %s", cfg.Prompt)
	}
}

func TestFromEnvRosterFallsBackToEndpoint(t *testing.T) {
	t.Setenv("OPSCONSOLE_ENDPOINT_URL", "https://exec.example/run")
	t.Setenv("OPSCONSOLE_ROSTER_URL", "")
	cfg := FromEnv()
	if cfg.RosterURL != "https://exec.example/run" {
		t.Fatalf("expected roster url to follow endpoint, got %s", cfg.RosterURL)
	}

	t.Setenv("OPSCONSOLE_ROSTER_URL", "https://roster.example/exec")
	cfg = FromEnv()
	if cfg.RosterURL != "https://roster.example/exec" {
		t.Fatalf("expected explicit roster url, got %s", cfg.RosterURL)
	}
}

func TestFromEnvParsesOverrides(t *testing.T) {
	t.Setenv("OPSCONSOLE_HTTP_TIMEOUT_SECONDS", "45")
	t.Setenv("OPSCONSOLE_TLS_SKIP_VERIFY", "yes")
	t.Setenv("OPSCONSOLE_REFRESH_SCHEDULE", " @every 5m ")
	cfg := FromEnv()
	if cfg.HTTPTimeoutSec != 45 {
		t.Fatalf("expected timeout 45, got %d", cfg.HTTPTimeoutSec)
	}
	if !cfg.TLSSkipVerify {
		t.Fatal("expected tls skip verify")
	}
	if cfg.RefreshSchedule != "@every 5m" {
		t.Fatalf("expected trimmed schedule, got %q", cfg.RefreshSchedule)
	}

	t.Setenv("OPSCONSOLE_HTTP_TIMEOUT_SECONDS", "-3")
	if got := FromEnv().HTTPTimeoutSec; got != 0 {
		t.Fatalf("expected invalid timeout to fall back to 0, got %d", got)
	}
}
