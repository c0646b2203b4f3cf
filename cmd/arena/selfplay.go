package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"chessArena/arena"
	"chessArena/bots"
)

type selfPlayOptions struct {
	DepthA    int
	DepthB    int
	TimeLimit time.Duration
	DB        string
	Test      arena.MatchConfig
}

// newSelfPlayCommand встроенный движок против самого себя на разной глубине,
// через тот же цикл партии, что и настоящий матч.
func newSelfPlayCommand(root *rootOptions) *cobra.Command {
	opts := &selfPlayOptions{}

	cmd := &cobra.Command{
		Use:   "selfplay",
		Short: "Play the built-in minimax engine against itself at two depths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			if opts.DepthA <= 0 || opts.DepthB <= 0 {
				return newExitError(exitCommandError, "depths must be positive")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			test := opts.Test
			test.EngineDepth = opts.DepthA
			test.ReferenceDepth = opts.DepthB
			if test.Name == "" {
				test.Name = fmt.Sprintf("Self-play (%d vs %d)", opts.DepthA, opts.DepthB)
			}

			engine := bots.NewMinimaxBot(opts.DepthA, opts.TimeLimit)
			run := &planRun{
				engine: engine,
				newReference: func(cfg arena.MatchConfig) bots.Session {
					return bots.InProcess{MovePlayer: bots.NewMinimaxBot(cfg.ReferenceDepth, opts.TimeLimit)}
				},
				referenceName: fmt.Sprintf("minimax%d", opts.DepthB),
				tests:         []arena.MatchConfig{test},
				report:        root.report(cmd.OutOrStdout()),
				dbPath:        opts.DB,
				log:           log,
			}
			_, err = run.run(ctx)
			return err
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.DepthA, "depth-a", 3, "depth of the first engine (reported as the engine under test)")
	f.IntVar(&opts.DepthB, "depth-b", 2, "depth of the second engine")
	f.DurationVar(&opts.TimeLimit, "time-limit", 10*time.Second, "search time limit per move")
	f.StringVar(&opts.DB, "db", "", "SQLite database for game records")
	f.StringVar(&opts.Test.Name, "name", "", "test name")
	f.IntVar(&opts.Test.Games, "games", 4, "number of games")
	f.IntVar(&opts.Test.MaxPlies, "max-plies", arena.DefaultMaxPlies, "plies before a game is declared drawn")
	f.IntVar(&opts.Test.Concurrency, "concurrency", 1, "games played at the same time")
	f.StringVar(&opts.Test.StartFEN, "fen", "", "start position")

	return cmd
}
