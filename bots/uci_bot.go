package bots

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chessArena/rules"
)

const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultMoveTimeout      = 5 * time.Second
	DefaultPerDepthTimeout  = 2 * time.Second
	DefaultQuitTimeout      = 2 * time.Second

	MinSkillLevel = 0
	MaxSkillLevel = 20
)

type SessionState int

const (
	Unstarted SessionState = iota
	Handshaking
	Ready
	Thinking
	Stopped
)

func (s SessionState) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Handshaking:
		return "handshaking"
	case Ready:
		return "ready"
	case Thinking:
		return "thinking"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// UCIBot эталонный движок (Stockfish и т.п.) по протоколу UCI.
// Один процесс на одну партию: Start, серия BestMove, Stop.
// Позиция каждый раз передается целиком, история ходов в движке не копится.
type UCIBot struct {
	Path       string
	Args       []string
	Env        []string
	SkillLevel *int

	HandshakeTimeout time.Duration
	MoveTimeout      time.Duration // запас сверх PerDepthTimeout*depth
	PerDepthTimeout  time.Duration
	QuitTimeout      time.Duration

	Log zerolog.Logger

	state SessionState
	proc  *process
}

func NewUCIBot(path string) *UCIBot {
	return &UCIBot{
		Path:             path,
		HandshakeTimeout: DefaultHandshakeTimeout,
		MoveTimeout:      DefaultMoveTimeout,
		PerDepthTimeout:  DefaultPerDepthTimeout,
		QuitTimeout:      DefaultQuitTimeout,
		Log:              zerolog.Nop(),
	}
}

func (b *UCIBot) Name() string {
	name := filepath.Base(b.Path)
	if b.SkillLevel != nil {
		name += fmt.Sprintf("/skill%d", clampSkill(*b.SkillLevel))
	}
	return name
}

func (b *UCIBot) State() SessionState {
	return b.state
}

// Start запускает процесс и проводит рукопожатие uci/uciok, isready/readyok.
// При ошибке процесс уже убит.
func (b *UCIBot) Start(ctx context.Context) error {
	if b.state != Unstarted {
		return &MoveError{Player: b.Name(), Op: "start", Err: fmt.Errorf("session is %v", b.state)}
	}
	b.state = Handshaking

	p, err := startProcess(b.Name(), b.Path, b.Args, b.Env, b.Log)
	if err != nil {
		b.state = Stopped
		return &MoveError{Player: b.Name(), Op: "start", Err: err}
	}
	b.proc = p

	if err := b.handshake(ctx); err != nil {
		p.Close()
		b.state = Stopped
		return &MoveError{Player: b.Name(), Op: "start", Err: err}
	}
	b.state = Ready
	return nil
}

func (b *UCIBot) handshake(ctx context.Context) error {
	if err := b.proc.send("uci"); err != nil {
		return err
	}
	if err := b.waitFor(ctx, "uciok"); err != nil {
		return err
	}
	if b.SkillLevel != nil {
		if err := b.proc.send("setoption name Skill Level value %d", clampSkill(*b.SkillLevel)); err != nil {
			return err
		}
	}
	if err := b.proc.send("isready"); err != nil {
		return err
	}
	return b.waitFor(ctx, "readyok")
}

func (b *UCIBot) waitFor(ctx context.Context, token string) error {
	timeout := b.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	_, err := b.proc.readUntil(ctx, timeout, func(line string) bool {
		return strings.Contains(line, token)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errDeadline):
		return fmt.Errorf("%w: no %s after %v", ErrHandshakeTimeout, token, timeout)
	case errors.Is(err, errExited):
		b.proc.exited(reapTimeout)
		return fmt.Errorf("waiting for %s: %w", token, b.proc.failure())
	}
	return err
}

// BestMove position fen + go depth, ответ - второй токен строки bestmove.
// После таймаута процесс убивается и сессия больше не принимает запросы.
func (b *UCIBot) BestMove(ctx context.Context, pos rules.Position, depth int) (rules.Move, error) {
	move, err := b.bestMove(ctx, pos, depth)
	if err != nil {
		return "", &MoveError{Player: b.Name(), Op: "bestmove", Err: err}
	}
	return move, nil
}

func (b *UCIBot) bestMove(ctx context.Context, pos rules.Position, depth int) (rules.Move, error) {
	if b.state != Ready {
		return "", fmt.Errorf("%w: %v", ErrNotReady, b.state)
	}
	if err := b.proc.send("position fen %s", pos); err != nil {
		b.abort()
		return "", err
	}
	if err := b.proc.send("go depth %d", depth); err != nil {
		b.abort()
		return "", err
	}
	b.state = Thinking

	timeout := b.moveTimeout(depth)
	line, err := b.proc.readUntil(ctx, timeout, func(line string) bool {
		return strings.HasPrefix(line, "bestmove")
	})
	if err != nil {
		b.abort()
		switch {
		case errors.Is(err, errDeadline):
			return "", fmt.Errorf("%w: no bestmove after %v", ErrSessionTimeout, timeout)
		case errors.Is(err, errExited):
			return "", b.proc.failure()
		}
		return "", err
	}
	b.state = Ready

	fields := strings.Fields(line)
	if len(fields) < 2 || fields[1] == "(none)" || fields[1] == "0000" {
		return "", fmt.Errorf("%w: %q", ErrParseFailure, line)
	}
	return ParseMove(fields[1])
}

func (b *UCIBot) moveTimeout(depth int) time.Duration {
	margin := b.MoveTimeout
	if margin <= 0 {
		margin = DefaultMoveTimeout
	}
	if depth < 0 {
		depth = 0
	}
	return margin + time.Duration(depth)*b.PerDepthTimeout
}

// abort сессия рассинхронизирована: убиваем процесс сразу.
func (b *UCIBot) abort() {
	b.proc.Close()
	b.state = Stopped
}

// Stop отправляет quit и ждет выхода процесса, по истечении QuitTimeout убивает его.
// Безопасно вызывать на любом пути выхода и повторно.
func (b *UCIBot) Stop() error {
	if b.proc == nil {
		b.state = Stopped
		return nil
	}
	if b.state != Stopped {
		_ = b.proc.send("quit")
		timeout := b.QuitTimeout
		if timeout <= 0 {
			timeout = DefaultQuitTimeout
		}
		if !b.proc.exited(timeout) {
			b.Log.Warn().Str("player", b.Name()).Msg("engine ignored quit, killing")
		}
	}
	b.state = Stopped
	return b.proc.Close()
}

func clampSkill(v int) int {
	if v < MinSkillLevel {
		return MinSkillLevel
	}
	if v > MaxSkillLevel {
		return MaxSkillLevel
	}
	return v
}
