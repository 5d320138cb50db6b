package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aki/tailbox/internal/core/outbox"
)

func newSendCmd(global *globalOptions) *cobra.Command {
	var lock bool

	cmd := &cobra.Command{
		Use:   "send <file> [message...]",
		Short: "Append a message to a file",
		Long: `Append a message to a file as one newline-terminated line.

The message words are joined with single spaces. Without a message every
line read from standard input is appended in order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := createLogger(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			w := outbox.New(args[0], outbox.Options{Lock: lock, Logger: log})
			ctx := cmd.Context()

			if len(args) > 1 {
				return w.Append(ctx, strings.Join(args[1:], " "))
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				if err := w.Append(ctx, scanner.Text()); err != nil {
					return err
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&lock, "lock", false, "Hold an advisory file lock while appending")
	return cmd
}
