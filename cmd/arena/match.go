package main

import (
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"chessArena/arena"
)

type matchOptions struct {
	Plan       string
	Engine     string
	Algorithm  string
	Timeout    time.Duration
	Reference  string
	DB         string
	Test       arena.MatchConfig
	SkillLevel int
}

func newMatchCommand(root *rootOptions) *cobra.Command {
	opts := &matchOptions{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Play the engine under test against the reference engine",
		Long: `Without --plan and without --engine-depth the four default tests are played:
equal depth, engine advantage, reference advantage and limited reference skill.
With --engine-depth a single test is built from the flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			plan, err := opts.plan(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			run := &planRun{
				engine:        plan.Engine.NewEngine(log),
				newReference:  plan.Reference.Factory(log),
				referenceName: plan.Reference.Path,
				tests:         plan.Tests,
				report:        root.report(cmd.OutOrStdout()),
				dbPath:        opts.DB,
				log:           log,
			}
			_, err = run.run(ctx)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Plan, "plan", "", "YAML test plan")
	f.StringVar(&opts.Engine, "engine", "", "engine under test executable (overrides the plan)")
	f.StringVar(&opts.Algorithm, "algorithm", "", "search algorithm passed to the engine (negamax|alphabeta|optimized)")
	f.DurationVar(&opts.Timeout, "engine-timeout", 0, "limit for one engine call (default 60s)")
	f.StringVar(&opts.Reference, "reference", "", "reference UCI engine executable (default stockfish)")
	f.StringVar(&opts.DB, "db", "", "SQLite database for game records")

	f.StringVar(&opts.Test.Name, "name", "", "test name")
	f.IntVar(&opts.Test.EngineDepth, "engine-depth", 0, "search depth of the engine under test")
	f.IntVar(&opts.Test.ReferenceDepth, "reference-depth", 5, "search depth of the reference engine")
	f.IntVar(&opts.SkillLevel, "skill", -1, "reference skill level 0..20, -1 for full strength")
	f.IntVar(&opts.Test.Games, "games", 10, "number of games")
	f.IntVar(&opts.Test.MaxPlies, "max-plies", arena.DefaultMaxPlies, "plies before a game is declared drawn")
	f.StringVar(&opts.Test.EngineColor, "color", "white", "engine color in the first game")
	f.IntVar(&opts.Test.Concurrency, "concurrency", 1, "games played at the same time")
	f.StringVar(&opts.Test.StartFEN, "fen", "", "start position")

	return cmd
}

// plan план из файла, из флагов одного теста или план по умолчанию.
func (o *matchOptions) plan(cmd *cobra.Command) (*arena.Plan, error) {
	var plan *arena.Plan
	switch {
	case o.Plan != "":
		p, err := arena.LoadPlan(o.Plan)
		if err != nil {
			return nil, wrapExitError(exitCommandError, "failed to load plan", err)
		}
		plan = p
	case cmd.Flags().Changed("engine-depth"):
		test := o.Test
		if o.SkillLevel >= 0 {
			skill := o.SkillLevel
			test.SkillLevel = &skill
		}
		plan = &arena.Plan{Tests: []arena.MatchConfig{test}}
	default:
		p := arena.DefaultPlan("", "")
		plan = &p
	}

	if o.Engine != "" {
		plan.Engine.Path = o.Engine
	}
	if o.Algorithm != "" {
		plan.Engine.Algorithm = o.Algorithm
	}
	if o.Timeout > 0 {
		plan.Engine.Timeout = o.Timeout
	}
	if o.Reference != "" {
		plan.Reference.Path = o.Reference
	}
	if plan.Reference.Path == "" {
		plan.Reference.Path = "stockfish"
	}
	if plan.Engine.Path == "" {
		return nil, newExitError(exitCommandError, "engine executable is required (--engine or plan)")
	}
	if err := plan.Validate(); err != nil {
		return nil, wrapExitError(exitCommandError, "invalid plan", err)
	}
	return plan, nil
}
