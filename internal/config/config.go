package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Environment string

	EndpointURL         string
	RosterURL           string
	HTTPTimeoutSec      int
	TLSSkipVerify       bool
	TLSCAFile           string
	RequireVerification bool

	Token     string
	TokenFile string
	Secret    string

	RefreshSchedule string
	RefreshCommand  string

	Prompt  string
	LogFile string
}

func FromEnv() Config {
	endpoint := strings.TrimSpace(os.Getenv("OPSCONSOLE_ENDPOINT_URL"))
	return Config{
		Environment:         stringOrDefault("OPSCONSOLE_ENV", "development"),
		EndpointURL:         endpoint,
		RosterURL:           stringOrDefault("OPSCONSOLE_ROSTER_URL", endpoint),
		HTTPTimeoutSec:      intOrDefault("OPSCONSOLE_HTTP_TIMEOUT_SECONDS", 0),
		TLSSkipVerify:       boolOrDefault("OPSCONSOLE_TLS_SKIP_VERIFY", false),
		TLSCAFile:           strings.TrimSpace(os.Getenv("OPSCONSOLE_TLS_CA_FILE")),
		RequireVerification: boolOrDefault("OPSCONSOLE_REQUIRE_VERIFICATION", false),
		Token:               strings.TrimSpace(os.Getenv("OPSCONSOLE_TOKEN")),
		TokenFile:           strings.TrimSpace(os.Getenv("OPSCONSOLE_TOKEN_FILE")),
		Secret:              os.Getenv("OPSCONSOLE_SECRET"),
		RefreshSchedule:     strings.TrimSpace(os.Getenv("OPSCONSOLE_REFRESH_SCHEDULE")),
		RefreshCommand:      stringOrDefault("OPSCONSOLE_REFRESH_COMMAND", "state"),
		Prompt:              stringOrDefault("OPSCONSOLE_PROMPT", ">"),
		LogFile:             strings.TrimSpace(os.Getenv("OPSCONSOLE_LOG_FILE")),
	}
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func boolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
