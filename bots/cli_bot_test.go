package bots

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chessArena/rules"
)

func helperCLI(mode string) *CLIBot {
	b := NewCLIBot(os.Args[0])
	b.Args = helperArgs()
	b.Env = helperEnvFor(mode)
	b.Timeout = 10 * time.Second
	return b
}

func TestCLIBotReturnsMove(t *testing.T) {
	b := helperCLI("cli-move")
	b.Algorithm = "alphabeta"

	move, err := b.BestMove(context.Background(), rules.InitialFEN, 3)
	require.NoError(t, err)
	assert.Equal(t, rules.Move("e2e4"), move)
}

func TestCLIBotPassesDepthWithoutAlgorithm(t *testing.T) {
	move, err := helperCLI("cli-move").BestMove(context.Background(), rules.InitialFEN, 5)
	require.NoError(t, err)
	assert.Equal(t, rules.Move("a2a3"), move)
}

func TestCLIBotFailures(t *testing.T) {
	tests := []struct {
		mode string
		want error
	}{
		{"cli-silent", ErrParseFailure},
		{"cli-garbage", ErrParseFailure},
		{"cli-crash", ErrProcessFailure},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			_, err := helperCLI(tt.mode).BestMove(context.Background(), rules.InitialFEN, 3)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var me *MoveError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, "bestmove", me.Op)
		})
	}
}

func TestCLIBotCrashKeepsStderr(t *testing.T) {
	_, err := helperCLI("cli-crash").BestMove(context.Background(), rules.InitialFEN, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segfault in search")
}

func TestCLIBotTimeout(t *testing.T) {
	b := helperCLI("cli-hang")
	b.Timeout = 300 * time.Millisecond

	start := time.Now()
	_, err := b.BestMove(context.Background(), rules.InitialFEN, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrProcessFailure)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCLIBotMissingExecutable(t *testing.T) {
	b := NewCLIBot("/nonexistent/engine")
	_, err := b.BestMove(context.Background(), rules.InitialFEN, 3)
	assert.ErrorIs(t, err, ErrProcessFailure)
}

func TestCLIBotName(t *testing.T) {
	b := NewCLIBot("/usr/local/bin/engine")
	assert.Equal(t, "engine", b.Name())
	b.Algorithm = "negamax"
	assert.Equal(t, "engine/negamax", b.Name())
}

func TestParseMove(t *testing.T) {
	m, err := ParseMove("  e2e4\n")
	require.NoError(t, err)
	assert.Equal(t, rules.Move("e2e4"), m)

	for _, bad := range []string{"", "   ", "e2e4 e7e5", "e2e4\ne7e5"} {
		_, err := ParseMove(bad)
		assert.ErrorIs(t, err, ErrParseFailure, "input %q", bad)
	}
}
