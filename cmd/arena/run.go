package main

import (
	"context"

	"github.com/rs/zerolog"

	"chessArena/arena"
	"chessArena/bots"
)

// planRun прогон набора тестов с отчетом и, если задан путь, журналом в SQLite.
type planRun struct {
	engine        bots.MovePlayer
	newReference  func(cfg arena.MatchConfig) bots.Session
	referenceName string
	tests         []arena.MatchConfig
	report        *arena.Report
	dbPath        string
	observers     []arena.Observer
	log           zerolog.Logger
}

func (p *planRun) run(ctx context.Context) ([]arena.Summary, error) {
	for _, cfg := range p.tests {
		if err := cfg.Validate(); err != nil {
			return nil, wrapExitError(exitCommandError, "invalid test", err)
		}
	}

	observers := append([]arena.Observer{p.report}, p.observers...)
	var recorder *arena.Recorder
	if p.dbPath != "" {
		store, err := arena.OpenStore(p.dbPath)
		if err != nil {
			return nil, wrapExitError(exitCommandError, "failed to open database", err)
		}
		defer store.Close()

		run, err := store.NewRun(ctx, p.engine.Name(), p.referenceName)
		if err != nil {
			return nil, wrapExitError(exitFailure, "failed to register run", err)
		}
		p.log.Info().Str("run", run.ID).Str("db", p.dbPath).Msg("recording games")
		recorder = store.Recorder(ctx, run.ID)
		observers = append(observers, recorder)
	}

	runner := &arena.Runner{
		Engine:       p.engine,
		NewReference: p.newReference,
		Observers:    observers,
		Log:          p.log,
	}

	var summaries []arena.Summary
	for _, cfg := range p.tests {
		p.report.MatchStarted(cfg)
		report, err := runner.Run(ctx, cfg)
		if err != nil {
			return summaries, wrapExitError(exitFailure, "match interrupted", err)
		}
		s := report.Summary()
		p.report.Summary(s)
		summaries = append(summaries, s)
	}
	if len(summaries) > 1 {
		p.report.Overall(summaries)
	}

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return summaries, wrapExitError(exitFailure, "failed to record games", err)
		}
	}
	return summaries, nil
}
