package bots

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/notnil/chess"

	"chessArena/rules"
)

const mateScore = 100000

var errNoMoves = errors.New("no legal moves")

// MinimaxBot встроенный движок: negamax с альфа-бета отсечением.
// Используется для самоигры и как соперник в тестах.
type MinimaxBot struct {
	Depth     int // глубина, если в BestMove пришел 0
	TimeLimit time.Duration
	Evaluator PositionEvaluator
}

// PositionEvaluator оценка позиции с точки зрения белых.
type PositionEvaluator interface {
	Evaluate(pos *chess.Position) float64
}

func NewMinimaxBot(depth int, timeLimit time.Duration) *MinimaxBot {
	return &MinimaxBot{
		Depth:     depth,
		TimeLimit: timeLimit,
		Evaluator: DefaultEvaluator{},
	}
}

func (b *MinimaxBot) Name() string {
	return fmt.Sprintf("minimax%d", b.Depth)
}

func (b *MinimaxBot) BestMove(ctx context.Context, pos rules.Position, depth int) (rules.Move, error) {
	cp, err := decodePosition(pos)
	if err != nil {
		return "", &MoveError{Player: b.Name(), Op: "bestmove", Err: err}
	}
	moves := cp.ValidMoves()
	if len(moves) == 0 {
		return "", &MoveError{Player: b.Name(), Op: "bestmove", Err: errNoMoves}
	}
	if depth <= 0 {
		depth = b.Depth
	}
	if depth <= 0 {
		depth = 1
	}
	if b.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.TimeLimit)
		defer cancel()
	}

	// при нехватке времени остается лучший из уже просмотренных
	best := moves[0]
	alpha := math.Inf(-1)
	for _, m := range moves {
		if ctx.Err() != nil {
			break
		}
		score := -b.negamax(ctx, cp.Update(m), depth-1, math.Inf(-1), -alpha)
		if score > alpha {
			alpha = score
			best = m
		}
	}
	return rules.Move(best.String()), nil
}

func (b *MinimaxBot) negamax(ctx context.Context, pos *chess.Position, depth int, alpha, beta float64) float64 {
	switch pos.Status() {
	case chess.Checkmate:
		// быстрый мат лучше медленного
		return -mateScore - float64(depth)
	case chess.Stalemate:
		return 0
	}
	if depth <= 0 || ctx.Err() != nil {
		score := b.Evaluator.Evaluate(pos)
		if pos.Turn() == chess.Black {
			score = -score
		}
		return score
	}

	best := math.Inf(-1)
	for _, m := range pos.ValidMoves() {
		score := -b.negamax(ctx, pos.Update(m), depth-1, -beta, -alpha)
		if score > best {
			best = score
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

func decodePosition(pos rules.Position) (*chess.Position, error) {
	opt, err := chess.FEN(pos.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	return chess.NewGame(opt).Position(), nil
}
