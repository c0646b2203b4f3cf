package arena

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/notnil/chess"

	"chessArena/bots"
	"chessArena/rules"
)

// scripted отдает ходы по списку по кругу, после списка - ошибку err (если задана).
type scripted struct {
	name  string
	moves []rules.Move
	err   error
	loop  bool

	mu    sync.Mutex
	i     int
	calls int
}

func (s *scripted) Name() string {
	return s.name
}

func (s *scripted) BestMove(ctx context.Context, pos rules.Position, depth int) (rules.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.i >= len(s.moves) {
		if s.loop && len(s.moves) > 0 {
			s.i = 0
		} else {
			if s.err == nil {
				return "", &bots.MoveError{Player: s.name, Op: "bestmove", Err: fmt.Errorf("%w: empty output", bots.ErrParseFailure)}
			}
			return "", &bots.MoveError{Player: s.name, Op: "bestmove", Err: s.err}
		}
	}
	m := s.moves[s.i]
	s.i++
	return m, nil
}

// fakeSession сессия эталона поверх встроенного бота.
type fakeSession struct {
	bots.MovePlayer
	startErr error
	counts   *sessionCounts
}

type sessionCounts struct {
	starts  atomic.Int32
	stops   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (s *fakeSession) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.counts.starts.Add(1)
	n := s.counts.active.Add(1)
	for {
		seen := s.counts.maxSeen.Load()
		if n <= seen || s.counts.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	return nil
}

func (s *fakeSession) Stop() error {
	s.counts.stops.Add(1)
	s.counts.active.Add(-1)
	return nil
}

var errNoStart = errors.New("reference start: handshake timeout")

// recorder наблюдатель, который все запоминает.
type recorder struct {
	mu       sync.Mutex
	started  []int
	finished []GameResult
	skipped  []SkippedGame
}

func (r *recorder) GameStarted(cfg MatchConfig, number int, engineColor chess.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, number)
}

func (r *recorder) GameFinished(cfg MatchConfig, res GameResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, res)
}

func (r *recorder) GameSkipped(cfg MatchConfig, s SkippedGame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, s)
}
