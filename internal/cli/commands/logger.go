package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/aki/tailbox/internal/core/logger"
)

// registerLoggerFlags registers global logging flags
func registerLoggerFlags(cmd *cobra.Command, opts *globalOptions) {
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging (overrides --log-level)")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only log warnings and errors (overrides --log-level)")
}

// createLogger creates a logger writing to w based on CLI flags
func createLogger(opts *globalOptions, w io.Writer) (logger.Logger, error) {
	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}
	format, err := logger.ParseFormat(opts.logFormat)
	if err != nil {
		return nil, err
	}

	loggerOpts := []logger.Option{
		logger.WithLevel(level),
		logger.WithFormat(format),
		logger.WithOutput(w),
	}
	switch {
	case opts.debug:
		loggerOpts = append(loggerOpts, logger.WithDebug())
	case opts.quiet:
		loggerOpts = append(loggerOpts, logger.WithQuiet())
	}

	return logger.New(loggerOpts...), nil
}
