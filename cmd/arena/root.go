package main

import (
	"io"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chessArena/arena"
)

type rootOptions struct {
	Verbose bool
	NoColor bool
	LogFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "arena",
		Short:         "Play a chess engine against a UCI reference engine",
		Long:          "Runs matches between an engine under test and a reference UCI engine, reports score, Elo difference and game records.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "plain text report")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "write logs to this file instead of stderr")

	cmd.AddCommand(newMatchCommand(opts))
	cmd.AddCommand(newSelfPlayCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newReportCommand(opts))

	return cmd
}

// logger консольный логгер на stderr или в файл.
func (o *rootOptions) logger(stderr io.Writer) (zerolog.Logger, func(), error) {
	level := zerolog.InfoLevel
	if o.Verbose {
		level = zerolog.DebugLevel
	}
	out, closeFn := stderr, func() {}
	if o.LogFile != "" {
		f, err := os.OpenFile(o.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closeFn, wrapExitError(exitCommandError, "failed to open log file", err)
		}
		out, closeFn = f, func() { f.Close() }
	}
	w := zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: o.NoColor || o.LogFile != ""}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), closeFn, nil
}

func (o *rootOptions) report(w io.Writer) *arena.Report {
	profile := termenv.EnvColorProfile()
	if o.NoColor {
		profile = termenv.Ascii
	}
	return arena.NewReport(w, profile)
}
