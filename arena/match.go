package arena

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chessArena/bots"
	"chessArena/rules"
)

// MatchConfig параметры одного теста. Во время матча не меняется.
type MatchConfig struct {
	Name           string `yaml:"name"`
	EngineDepth    int    `yaml:"engine_depth"`
	ReferenceDepth int    `yaml:"reference_depth"`
	SkillLevel     *int   `yaml:"skill_level,omitempty"`
	Games          int    `yaml:"games"`
	MaxPlies       int    `yaml:"max_plies"`
	EngineColor    string `yaml:"engine_color"`
	Concurrency    int    `yaml:"concurrency"`
	StartFEN       string `yaml:"start_fen,omitempty"`
}

func (c MatchConfig) withDefaults() MatchConfig {
	if c.Games == 0 {
		c.Games = 10
	}
	if c.MaxPlies == 0 {
		c.MaxPlies = DefaultMaxPlies
	}
	if c.EngineColor == "" {
		c.EngineColor = "white"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.StartFEN == "" {
		c.StartFEN = rules.InitialFEN
	}
	if c.Name == "" {
		c.Name = fmt.Sprintf("Depth %dv%d", c.EngineDepth, c.ReferenceDepth)
	}
	return c
}

func (c MatchConfig) Validate() error {
	if c.EngineDepth <= 0 || c.ReferenceDepth <= 0 {
		return fmt.Errorf("%s: search depth must be positive", c.Name)
	}
	if c.Games < 0 || c.MaxPlies < 0 {
		return fmt.Errorf("%s: games and max plies must not be negative", c.Name)
	}
	if _, ok := parseColor(c.EngineColor); !ok {
		return fmt.Errorf("%s: unknown engine color %q", c.Name, c.EngineColor)
	}
	if c.SkillLevel != nil && (*c.SkillLevel < bots.MinSkillLevel || *c.SkillLevel > bots.MaxSkillLevel) {
		return fmt.Errorf("%s: skill level %d is out of %d..%d", c.Name, *c.SkillLevel, bots.MinSkillLevel, bots.MaxSkillLevel)
	}
	if c.StartFEN != "" {
		if err := rules.Position(c.StartFEN).Validate(); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
	}
	return nil
}

// EngineColorFor цвет движка в партии с индексом i (с нуля): четные - заданный цвет,
// нечетные - противоположный.
func (c MatchConfig) EngineColorFor(i int) chess.Color {
	color, _ := parseColor(c.EngineColor)
	if color == chess.NoColor {
		color = chess.White
	}
	if i%2 == 1 {
		return color.Other()
	}
	return color
}

// Observer получает события матча. GameStarted может вызываться из нескольких
// горутин одновременно, GameFinished и GameSkipped - из одной.
type Observer interface {
	GameStarted(cfg MatchConfig, number int, engineColor chess.Color)
	GameFinished(cfg MatchConfig, r GameResult)
	GameSkipped(cfg MatchConfig, s SkippedGame)
}

// SkippedGame партия не состоялась: эталонный движок не запустился.
type SkippedGame struct {
	Number      int
	EngineColor chess.Color
	Err         error
}

type MatchReport struct {
	Config  MatchConfig
	Results []GameResult
	Skipped []SkippedGame
}

func (r MatchReport) Summary() Summary {
	return Summarize(r.Config.Name, r.Results)
}

// Runner играет серию партий движка против свежей сессии эталона на каждую партию.
type Runner struct {
	Engine       bots.MovePlayer
	NewReference func(cfg MatchConfig) bots.Session
	Rules        Rules
	Observers    []Observer
	Log          zerolog.Logger
}

type gameInfo struct {
	number      int
	engineColor chess.Color
}

type gameOutcome struct {
	result  *GameResult
	skipped *SkippedGame
}

// Run играет cfg.Games партий, не больше cfg.Concurrency одновременно.
// Сбой в партии не останавливает матч, ошибка возвращается только при отмене ctx.
func (r *Runner) Run(ctx context.Context, cfg MatchConfig) (MatchReport, error) {
	cfg = cfg.withDefaults()
	report := MatchReport{Config: cfg}
	if err := cfg.Validate(); err != nil {
		return report, err
	}
	if r.Engine == nil || r.NewReference == nil {
		return report, errors.New("runner needs an engine and a reference")
	}

	log := r.Log.With().Str("test", cfg.Name).Logger()
	log.Info().Int("games", cfg.Games).Int("engine_depth", cfg.EngineDepth).
		Int("reference_depth", cfg.ReferenceDepth).Int("concurrency", cfg.Concurrency).Msg("match started")

	g, ctx := errgroup.WithContext(ctx)

	var gameInfos = make(chan gameInfo)
	var outcomes = make(chan gameOutcome)

	g.Go(func() error {
		defer close(gameInfos)
		for i := 0; i < cfg.Games; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case gameInfos <- gameInfo{number: i + 1, engineColor: cfg.EngineColorFor(i)}:
			}
		}
		return nil
	})

	var wg = &sync.WaitGroup{}
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return r.playGames(ctx, cfg, log, gameInfos, outcomes)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(outcomes)
		return nil
	})

	g.Go(func() error {
		for o := range outcomes {
			if o.skipped != nil {
				report.Skipped = append(report.Skipped, *o.skipped)
				for _, obs := range r.Observers {
					obs.GameSkipped(cfg, *o.skipped)
				}
				continue
			}
			report.Results = append(report.Results, *o.result)
			for _, obs := range r.Observers {
				obs.GameFinished(cfg, *o.result)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return report, err
	}

	sort.Slice(report.Results, func(i, j int) bool { return report.Results[i].Number < report.Results[j].Number })
	sort.Slice(report.Skipped, func(i, j int) bool { return report.Skipped[i].Number < report.Skipped[j].Number })
	log.Info().Int("played", len(report.Results)).Int("skipped", len(report.Skipped)).Msg("match finished")
	return report, nil
}

func (r *Runner) playGames(
	ctx context.Context,
	cfg MatchConfig,
	log zerolog.Logger,
	gameInfos <-chan gameInfo,
	outcomes chan<- gameOutcome,
) error {
	for info := range gameInfos {
		var o = r.playGame(ctx, cfg, log, info)
		// партия, прерванная отменой, в статистику не идет
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case outcomes <- o:
		}
	}
	return nil
}

// playGame одна партия со своей сессией эталона. Сессия останавливается на любом пути выхода.
func (r *Runner) playGame(ctx context.Context, cfg MatchConfig, log zerolog.Logger, info gameInfo) gameOutcome {
	log = log.With().Int("game", info.number).Str("engine_color", colorName(info.engineColor)).Logger()
	for _, obs := range r.Observers {
		obs.GameStarted(cfg, info.number, info.engineColor)
	}

	ref := r.NewReference(cfg)
	if err := ref.Start(ctx); err != nil {
		log.Error().Err(err).Msg("reference did not start, game skipped")
		return gameOutcome{skipped: &SkippedGame{Number: info.number, EngineColor: info.engineColor, Err: err}}
	}
	defer func() {
		if err := ref.Stop(); err != nil {
			log.Warn().Err(err).Msg("reference stop")
		}
	}()

	res := PlayGame(ctx, GameSetup{
		Number:      info.number,
		Engine:      Side{Player: r.Engine, Depth: cfg.EngineDepth},
		Reference:   Side{Player: ref, Depth: cfg.ReferenceDepth},
		EngineColor: info.engineColor,
		Start:       rules.Position(cfg.StartFEN),
		MaxPlies:    cfg.MaxPlies,
		Rules:       r.Rules,
		Log:         log,
	})
	log.Info().Str("result", res.Outcome.String()).Str("termination", string(res.Termination)).
		Int("plies", res.Plies).Msg("game finished")
	return gameOutcome{result: &res}
}
