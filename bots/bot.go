// bot.go
package bots

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chessArena/rules"
)

// MovePlayer общий интерфейс для всех игроков арены: внешнего движка
// (один процесс на ход), UCI-сессии и встроенных ботов.
type MovePlayer interface {
	BestMove(ctx context.Context, pos rules.Position, depth int) (rules.Move, error)
	Name() string
}

// Session игрок с долгоживущим процессом. Живет ровно одну партию.
type Session interface {
	MovePlayer
	Start(ctx context.Context) error
	Stop() error
}

var (
	ErrTimeout          = errors.New("no response in time")
	ErrSessionTimeout   = fmt.Errorf("session: %w", ErrTimeout)
	ErrHandshakeTimeout = errors.New("handshake timeout")
	ErrProcessFailure   = errors.New("process failure")
	ErrParseFailure     = errors.New("unparsable output")
	ErrNotReady         = errors.New("session is not ready")
)

// MoveError ошибка конкретного игрока в конкретной операции.
type MoveError struct {
	Player string
	Op     string
	Err    error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Player, e.Op, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// ParseMove ход из строки вывода движка: один токен без пробелов.
func ParseMove(line string) (rules.Move, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%w: empty output", ErrParseFailure)
	}
	if strings.ContainsAny(line, " \t\r\n") {
		return "", fmt.Errorf("%w: %q is not a single move", ErrParseFailure, line)
	}
	return rules.Move(line), nil
}

// InProcess сессия поверх встроенного бота: запускать нечего.
type InProcess struct {
	MovePlayer
}

func (InProcess) Start(ctx context.Context) error { return nil }

func (InProcess) Stop() error { return nil }
