package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chessArena/arena"
)

type reportOptions struct {
	DB    string
	Run   string
	PGN   bool
	Games bool
}

func newReportCommand(root *rootOptions) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.DB == "" {
				return newExitError(exitCommandError, "--db is required")
			}
			store, err := arena.OpenStore(opts.DB)
			if err != nil {
				return wrapExitError(exitCommandError, "failed to open database", err)
			}
			defer store.Close()

			ctx := cmd.Context()
			runID := opts.Run
			if runID == "" {
				runs, err := store.Runs(ctx)
				if err != nil {
					return wrapExitError(exitFailure, "failed to list runs", err)
				}
				if len(runs) == 0 {
					return newExitError(exitCommandError, "no runs recorded")
				}
				runID = runs[0].ID
			}

			out := cmd.OutOrStdout()
			report := root.report(out)

			if opts.Games || opts.PGN {
				games, err := store.Games(ctx, runID)
				if err != nil {
					return wrapExitError(exitFailure, "failed to read games", err)
				}
				perTest := make(map[string]int)
				for _, g := range games {
					perTest[g.Test]++
				}
				for _, g := range games {
					if opts.PGN {
						fmt.Fprintf(out, "%s\n\n", g.PGN)
						continue
					}
					report.GameFinished(arena.MatchConfig{Name: g.Test, Games: perTest[g.Test]}, g.GameResult)
				}
			}

			summaries, err := store.Summaries(ctx, runID)
			if err != nil {
				return wrapExitError(exitFailure, "failed to read games", err)
			}
			if len(summaries) == 0 {
				return newExitError(exitCommandError, fmt.Sprintf("run %s has no games", runID))
			}
			fmt.Fprintf(out, "Run %s\n", runID)
			for _, s := range summaries {
				report.Summary(s)
			}
			if len(summaries) > 1 {
				report.Overall(summaries)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.DB, "db", "", "SQLite database written by match or selfplay")
	f.StringVar(&opts.Run, "run", "", "run id (default latest)")
	f.BoolVar(&opts.Games, "games", false, "list every game")
	f.BoolVar(&opts.PGN, "pgn", false, "print game records as PGN")

	return cmd
}
