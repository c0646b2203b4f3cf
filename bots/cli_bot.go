package bots

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chessArena/rules"
)

// DefaultCLITimeout жесткий предел на один вызов тестируемого движка.
const DefaultCLITimeout = 60 * time.Second

// CLIBot тестируемый движок: новый процесс на каждый ход,
// `<Path> [Args...] <fen> <depth> [Algorithm]`, в ответ одна строка с ходом.
type CLIBot struct {
	Path      string
	Args      []string // аргументы перед позицией, например скрипт интерпретатора
	Env       []string
	Algorithm string
	Timeout   time.Duration
	Log       zerolog.Logger
}

func NewCLIBot(path string) *CLIBot {
	return &CLIBot{
		Path:    path,
		Timeout: DefaultCLITimeout,
		Log:     zerolog.Nop(),
	}
}

func (b *CLIBot) Name() string {
	if b.Algorithm != "" {
		return filepath.Base(b.Path) + "/" + b.Algorithm
	}
	return filepath.Base(b.Path)
}

func (b *CLIBot) BestMove(ctx context.Context, pos rules.Position, depth int) (rules.Move, error) {
	move, err := b.bestMove(ctx, pos, depth)
	if err != nil {
		return "", &MoveError{Player: b.Name(), Op: "bestmove", Err: err}
	}
	return move, nil
}

func (b *CLIBot) bestMove(ctx context.Context, pos rules.Position, depth int) (rules.Move, error) {
	args := append(append([]string(nil), b.Args...), pos.String(), strconv.Itoa(depth))
	if b.Algorithm != "" {
		args = append(args, b.Algorithm)
	}

	p, err := startProcess(b.Name(), b.Path, args, b.Env, b.Log)
	if err != nil {
		return "", err
	}
	defer p.Close()

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultCLITimeout
	}

	// читаем весь вывод до EOF
	var out []string
	_, err = p.readUntil(ctx, timeout, func(line string) bool {
		out = append(out, line)
		return false
	})
	switch {
	case errors.Is(err, errDeadline):
		return "", ErrTimeout
	case errors.Is(err, errExited):
	default:
		return "", err
	}

	if !p.exited(reapTimeout) {
		return "", ErrTimeout
	}
	if p.waitErr != nil {
		return "", p.failure()
	}
	return ParseMove(strings.Join(out, "\n"))
}
