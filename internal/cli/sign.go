package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwizi/ops-console/internal/config"
	"github.com/dwizi/ops-console/internal/signature"
)

func newSignCommand() *cobra.Command {
	var (
		secret string
		at     string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print today's request signature for a passkey",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret = firstNonEmpty(secret, config.FromEnv().Secret)
			when := time.Now()
			if value := strings.TrimSpace(at); value != "" {
				parsed, err := time.Parse(time.RFC3339, value)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				when = parsed
			}
			signed, err := signature.SignAt(secret, when)
			if err != nil {
				return err
			}
			cmd.Println(signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "shared passkey (defaults to OPSCONSOLE_SECRET)")
	cmd.Flags().StringVar(&at, "at", "", "sign for the day containing this RFC3339 time instead of now")
	return cmd
}
