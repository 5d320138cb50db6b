package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aki/tailbox/internal/core/tail"
	"github.com/aki/tailbox/internal/filemanager"
)

func newTailCmd() *cobra.Command {
	var poll time.Duration

	cmd := &cobra.Command{
		Use:   "tail <file>",
		Short: "Follow new lines appended to a file",
		Long: `Print every line appended to a file from now on.

Content already in the file is skipped. The file is created if missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := filemanager.Touch(path); err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer func() { _ = f.Close() }()

			t := tail.New(f, tail.Options{PollInterval: poll})
			err = t.Follow(cmd.Context(), cmd.OutOrStdout())
			if cmd.Context().Err() != nil && errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&poll, "poll", tail.DefaultOptions().PollInterval, "Poll interval while waiting for new lines")
	return cmd
}
