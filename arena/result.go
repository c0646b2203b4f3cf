package arena

import (
	"errors"
	"time"

	"github.com/notnil/chess"

	"chessArena/bots"
	"chessArena/rules"
)

// Termination почему закончилась партия.
type Termination string

const (
	TerminationCheckmate            = Termination(rules.ReasonCheckmate)
	TerminationStalemate            = Termination(rules.ReasonStalemate)
	TerminationFiftyMove            = Termination(rules.ReasonFiftyMove)
	TerminationInsufficientMaterial = Termination(rules.ReasonInsufficientMaterial)
	TerminationMaxPlies             Termination = "max-plies"

	// поражение стороны, которая не смогла сделать ход
	TerminationTimeout        Termination = "timeout"
	TerminationProcessFailure Termination = "process-failure"
	TerminationParseFailure   Termination = "parse-failure"
	TerminationIllegalMove    Termination = "illegal-move"
)

// Forfeit партия проиграна из-за сбоя игрока, а не на доске.
func (t Termination) Forfeit() bool {
	switch t {
	case TerminationTimeout, TerminationProcessFailure, TerminationParseFailure, TerminationIllegalMove:
		return true
	}
	return false
}

func failureTermination(err error) Termination {
	switch {
	case errors.Is(err, bots.ErrTimeout):
		return TerminationTimeout
	case errors.Is(err, bots.ErrParseFailure):
		return TerminationParseFailure
	case errors.Is(err, rules.ErrIllegalMove):
		return TerminationIllegalMove
	}
	return TerminationProcessFailure
}

// GameResult итог одной партии. Создается один раз в конце партии.
type GameResult struct {
	Number      int
	Outcome     rules.Outcome
	Termination Termination
	Detail      string
	Plies       int
	WhiteTime   time.Duration
	BlackTime   time.Duration
	EngineColor chess.Color
	Start       rules.Position
	Final       rules.Position
	Moves       []rules.Move
}

func (r GameResult) EngineWon() bool {
	return r.Outcome == rules.WinFor(r.EngineColor)
}

func (r GameResult) EngineLost() bool {
	return r.Outcome == rules.WinFor(r.EngineColor.Other())
}

func (r GameResult) IsDraw() bool {
	return r.Outcome == rules.Draw
}

// EngineTime время тестируемого движка за партию.
func (r GameResult) EngineTime() time.Duration {
	if r.EngineColor == chess.Black {
		return r.BlackTime
	}
	return r.WhiteTime
}

func colorName(c chess.Color) string {
	if c == chess.Black {
		return "black"
	}
	return "white"
}

func parseColor(s string) (chess.Color, bool) {
	switch s {
	case "white", "w", "":
		return chess.White, true
	case "black", "b":
		return chess.Black, true
	}
	return chess.NoColor, false
}
