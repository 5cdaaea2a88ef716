package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwizi/ops-console/internal/config"
	"github.com/dwizi/ops-console/internal/dispatch"
	"github.com/dwizi/ops-console/internal/roster"
	"github.com/dwizi/ops-console/internal/session"
)

func newRosterCommand(logger *slog.Logger) *cobra.Command {
	var flags connectionFlags

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the backend email roster",
	}
	flags.bind(cmd.PersistentFlags())

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the current roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := newRoster(flags, logger)
			if err != nil {
				return err
			}
			outcome := list.Sync(commandContext(cmd))
			if err := reportOutcome(cmd, outcome); err != nil {
				return err
			}
			printRoster(cmd, list.Emails())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <email[,email...]>",
		Short: "Add one or more comma-separated addresses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := newRoster(flags, logger)
			if err != nil {
				return err
			}
			var failed int
			for _, outcome := range list.AddMany(commandContext(cmd), strings.Join(args, ",")) {
				if err := reportOutcome(cmd, outcome); err != nil {
					failed++
				}
			}
			printRoster(cmd, list.Emails())
			if failed > 0 {
				return fmt.Errorf("%d address(es) not added", failed)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <email>",
		Short: "Remove one address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := newRoster(flags, logger)
			if err != nil {
				return err
			}
			outcome := list.Remove(commandContext(cmd), args[0])
			if err := reportOutcome(cmd, outcome); err != nil {
				return err
			}
			printRoster(cmd, list.Emails())
			return nil
		},
	})
	return cmd
}

func newRoster(flags connectionFlags, logger *slog.Logger) (*roster.Roster, error) {
	cfg := flags.apply(config.FromEnv())
	credential, err := resolveCredential(cfg, time.Now())
	if err != nil {
		return nil, err
	}
	client, err := dispatch.New(cfg, firstNonEmpty(cfg.RosterURL, cfg.EndpointURL), logger)
	if err != nil {
		return nil, err
	}
	return roster.New(client, func() (session.Credential, bool) {
		return credential, true
	}, logger), nil
}

// reportOutcome prints the backend's message verbatim and returns an error for any
// unsuccessful call.
func reportOutcome(cmd *cobra.Command, outcome roster.Outcome) error {
	if outcome.Err != nil {
		cmd.PrintErrf("%s: %v\n", fallbackEmail(outcome.Email), outcome.Err)
		return outcome.Err
	}
	if outcome.Message != "" {
		cmd.Println(outcome.Message)
	}
	if !outcome.Success {
		return fmt.Errorf("roster request rejected: %s", firstNonEmpty(outcome.Message, "no message"))
	}
	return nil
}

func printRoster(cmd *cobra.Command, emails []string) {
	if len(emails) == 0 {
		cmd.Println("(roster is empty)")
		return
	}
	for _, email := range emails {
		cmd.Println("- " + email)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func fallbackEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "roster"
	}
	return email
}
