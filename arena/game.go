package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"chessArena/bots"
	"chessArena/rules"
)

const DefaultMaxPlies = 150

// Rules правила, через которые проходит каждый ход.
type Rules interface {
	Apply(pos rules.Position, move rules.Move) (rules.Position, error)
	Classify(pos rules.Position) rules.Status
}

// Side игрок и его бюджет поиска (глубина).
type Side struct {
	Player bots.MovePlayer
	Depth  int
}

type GameSetup struct {
	Number      int
	Engine      Side
	Reference   Side
	EngineColor chess.Color
	Start       rules.Position
	MaxPlies    int
	Rules       Rules
	Log         zerolog.Logger
}

func (s *GameSetup) side(c chess.Color) Side {
	if c == s.EngineColor {
		return s.Engine
	}
	return s.Reference
}

// PlayGame играет одну партию до конца. Любой сбой игрока - поражение этого игрока,
// повторов нет. Результат есть всегда.
func PlayGame(ctx context.Context, setup GameSetup) GameResult {
	if setup.Start == "" {
		setup.Start = rules.InitialFEN
	}
	if setup.MaxPlies <= 0 {
		setup.MaxPlies = DefaultMaxPlies
	}
	if setup.Rules == nil {
		setup.Rules = rules.Standard{}
	}
	log := setup.Log.With().Int("game", setup.Number).Str("engine_color", colorName(setup.EngineColor)).Logger()

	res := GameResult{
		Number:      setup.Number,
		EngineColor: setup.EngineColor,
		Start:       setup.Start,
	}
	pos := setup.Start
	finish := func(o rules.Outcome, t Termination, detail string) GameResult {
		res.Final = pos
		res.Outcome = o
		res.Termination = t
		res.Detail = detail
		return res
	}

	if st := setup.Rules.Classify(pos); st.Terminal() {
		return finish(st.Outcome, Termination(st.Reason), "")
	}

	for {
		if res.Plies >= setup.MaxPlies {
			return finish(rules.Draw, TerminationMaxPlies, "")
		}

		turn := pos.Turn()
		side := setup.side(turn)

		start := time.Now()
		move, err := side.Player.BestMove(ctx, pos, side.Depth)
		elapsed := time.Since(start)
		if turn == chess.White {
			res.WhiteTime += elapsed
		} else {
			res.BlackTime += elapsed
		}

		if err != nil {
			t := failureTermination(err)
			log.Warn().Err(err).Int("ply", res.Plies+1).Str("termination", string(t)).Msg("player failed")
			return finish(rules.WinFor(turn.Other()), t, err.Error())
		}

		next, err := setup.Rules.Apply(pos, move)
		if err != nil {
			detail := fmt.Sprintf("%s played %s: %v", side.Player.Name(), move, err)
			log.Warn().Str("move", string(move)).Int("ply", res.Plies+1).Msg("illegal move")
			return finish(rules.WinFor(turn.Other()), TerminationIllegalMove, detail)
		}

		pos = next
		res.Plies++
		res.Moves = append(res.Moves, move)
		log.Debug().Int("ply", res.Plies).Str("player", side.Player.Name()).Str("move", string(move)).
			Dur("elapsed", elapsed).Msg("move")

		if st := setup.Rules.Classify(pos); st.Terminal() {
			return finish(st.Outcome, Termination(st.Reason), "")
		}
	}
}
