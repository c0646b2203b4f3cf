package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chessArena/arena"
	"chessArena/bots"
	"chessArena/web"
)

type serveOptions struct {
	Addr      string
	Engine    string
	Algorithm string
	Timeout   time.Duration
	Origins   string
	Plan      string
	DB        string
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser board and the engine move endpoint",
		Long: `Serves GET / (board page), POST /engine_move, GET /health and GET /ws.
With --plan the plan is played in the background and its games are streamed to /ws.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			engine := bots.NewCLIBot(opts.Engine)
			engine.Algorithm = opts.Algorithm
			engine.Timeout = opts.Timeout
			engine.Log = log

			allow := strings.Split(opts.Origins, ",")
			hub := web.NewHub(allow, log)
			go hub.Run()
			defer hub.Close()

			srv := &web.Server{Engine: engine, Hub: hub, Allow: allow, Log: log}
			httpSrv := &http.Server{Addr: opts.Addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if opts.Plan != "" {
				plan, err := arena.LoadPlan(opts.Plan)
				if err != nil {
					return wrapExitError(exitCommandError, "failed to load plan", err)
				}
				run := &planRun{
					engine:        plan.Engine.NewEngine(log),
					newReference:  plan.Reference.Factory(log),
					referenceName: plan.Reference.Path,
					tests:         plan.Tests,
					report:        root.report(cmd.OutOrStdout()),
					dbPath:        opts.DB,
					observers:     []arena.Observer{hub},
					log:           log,
				}
				go func() {
					if _, err := run.run(ctx); err != nil {
						log.Error().Err(err).Msg("background match")
					}
				}()
			}

			errc := make(chan error, 1)
			go func() {
				log.Info().Str("addr", opts.Addr).Msg("server listening")
				errc <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return wrapExitError(exitFailure, "server failed", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			log.Info().Msg("shutting down")
			return httpSrv.Shutdown(shutdownCtx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Addr, "addr", ":8000", "listen address")
	f.StringVar(&opts.Engine, "engine", "./engine", "engine under test executable")
	f.StringVar(&opts.Algorithm, "algorithm", "", "search algorithm passed to the engine")
	f.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "limit for one engine call")
	f.StringVar(&opts.Origins, "origins", "http://localhost:8000,http://127.0.0.1:8000", "comma separated CORS and websocket origin allowlist")
	f.StringVar(&opts.Plan, "plan", "", "YAML test plan to play in the background")
	f.StringVar(&opts.DB, "db", "", "SQLite database for game records of the background match")

	return cmd
}
