package bots

import (
	"context"

	"chessArena/rules"
)

// NewbornBot всегда играет первый легальный ход. Детерминирован.
type NewbornBot struct{}

func NewNewbornBot() *NewbornBot {
	return &NewbornBot{}
}

func (b *NewbornBot) BestMove(ctx context.Context, pos rules.Position, depth int) (rules.Move, error) {
	cp, err := decodePosition(pos)
	if err != nil {
		return "", &MoveError{Player: b.Name(), Op: "bestmove", Err: err}
	}
	moves := cp.ValidMoves()
	if len(moves) == 0 {
		return "", &MoveError{Player: b.Name(), Op: "bestmove", Err: errNoMoves}
	}
	return rules.Move(moves[0].String()), nil
}

func (b *NewbornBot) Name() string {
	return "Newborn"
}
