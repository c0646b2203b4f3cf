package bots

import (
	"context"
	"math/rand"
	"sync"

	"chessArena/rules"
)

// RandomBot случайный легальный ход. Нужен как самый слабый соперник.
type RandomBot struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomBot(seed int64) *RandomBot {
	return &RandomBot{rnd: rand.New(rand.NewSource(seed))}
}

func (b *RandomBot) BestMove(ctx context.Context, pos rules.Position, depth int) (rules.Move, error) {
	cp, err := decodePosition(pos)
	if err != nil {
		return "", &MoveError{Player: b.Name(), Op: "bestmove", Err: err}
	}
	moves := cp.ValidMoves()
	if len(moves) == 0 {
		return "", &MoveError{Player: b.Name(), Op: "bestmove", Err: errNoMoves}
	}
	b.mu.Lock()
	i := b.rnd.Intn(len(moves))
	b.mu.Unlock()
	return rules.Move(moves[i].String()), nil
}

func (b *RandomBot) Name() string {
	return "random"
}
