package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwizi/ops-console/internal/config"
	"github.com/dwizi/ops-console/internal/consoleerr"
	"github.com/dwizi/ops-console/internal/dispatch"
	"github.com/dwizi/ops-console/internal/markup"
	"github.com/dwizi/ops-console/internal/session"
)

func newExecCommand(logger *slog.Logger) *cobra.Command {
	var (
		flags      connectionFlags
		raw        bool
		showState  bool
		timeoutSec int
	)

	cmd := &cobra.Command{
		Use:   "exec [command]",
		Short: "Send one command to the backend and print the response",
		Long:  "Sends the command given as arguments. With no arguments, sends each non-empty line of stdin in turn.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.apply(config.FromEnv())
			credential, err := resolveCredential(cfg, time.Now())
			if err != nil {
				return err
			}
			client, err := dispatch.New(cfg, cfg.EndpointURL, logger)
			if err != nil {
				return err
			}
			printer := responsePrinter{cmd: cmd, raw: raw, showState: showState}

			text := strings.TrimSpace(strings.Join(args, " "))
			if text != "" {
				return execOne(cmd.Context(), client, credential, text, timeoutSec, printer)
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			var failed int
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				cmd.Printf("%s %s\n", firstNonEmpty(cfg.Prompt, ">"), line)
				if err := execOne(cmd.Context(), client, credential, line, timeoutSec, printer); err != nil {
					failed++
					cmd.PrintErrf("command failed: %v\n", err)
					if consoleerr.ForcesLogout(err) {
						return err
					}
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d command(s) failed", failed)
			}
			return nil
		},
	}
	flags.bind(cmd.Flags())
	cmd.Flags().BoolVar(&raw, "raw", false, "print backend markup instead of rendered text")
	cmd.Flags().BoolVar(&showState, "state", false, "print structured state after the response")
	cmd.Flags().IntVar(&timeoutSec, "timeout-sec", 0, "request timeout in seconds (0 waits for the transport)")
	return cmd
}

func execOne(ctx context.Context, client *dispatch.Client, credential session.Credential, text string, timeoutSec int, printer responsePrinter) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
		defer cancel()
	}
	envelope, err := client.Dispatch(ctx, text, credential)
	if err != nil {
		var failure *consoleerr.Failure
		if errors.As(err, &failure) && failure.Markup != "" {
			printer.printMarkup(failure.Markup, true)
		}
		return err
	}
	printer.print(envelope)
	return nil
}

type responsePrinter struct {
	cmd       *cobra.Command
	raw       bool
	showState bool
}

func (p responsePrinter) print(envelope dispatch.Envelope) {
	content := envelope.Renderable()
	if strings.TrimSpace(content) == "" {
		p.cmd.Println("(no output)")
	} else {
		p.printMarkup(content, false)
	}
	if !p.showState || !envelope.ExpectsState() {
		return
	}
	if len(envelope.State) == 0 {
		p.cmd.Println("state: (none)")
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, envelope.State, "", "  "); err != nil {
		p.cmd.Printf("state: %s\n", string(envelope.State))
		return
	}
	p.cmd.Printf("state:\n%s\n", buf.String())
}

func (p responsePrinter) printMarkup(content string, toErr bool) {
	lines := []string{content}
	if !p.raw {
		lines = markup.ToText(content)
	}
	for _, line := range lines {
		if toErr {
			p.cmd.PrintErrln(line)
			continue
		}
		p.cmd.Println(line)
	}
}
