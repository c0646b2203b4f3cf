package rules

import (
	"strings"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyUCIMoveFromInitialPosition(t *testing.T) {
	next, err := Standard{}.Apply(InitialFEN, "e2e4")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(next.String(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq"), next)
	assert.Equal(t, chess.Black, next.Turn())
	assert.Equal(t, 0, next.HalfmoveClock())
	assert.Equal(t, 1, next.FullmoveNumber())
}

func TestApplySANMove(t *testing.T) {
	next, err := Standard{}.Apply(InitialFEN, "Nf3")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(next.String(), "rnbqkbnr/pppppppp/8/8/8/5N2/PPPPPPPP/RNBQKB1R b"), next)
	assert.Equal(t, 1, next.HalfmoveClock())
}

func TestApplyPromotion(t *testing.T) {
	next, err := Standard{}.Apply("8/4P3/8/8/8/2k5/8/4K3 w - - 0 1", "e7e8q")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(next.String(), "4Q3/"), next)
}

func TestApplyRejectsIllegalMove(t *testing.T) {
	for _, mv := range []Move{"e2e5", "", "xyz", "Ke2"} {
		_, err := Standard{}.Apply(InitialFEN, mv)
		assert.ErrorIs(t, err, ErrIllegalMove, "move %q", mv)
	}
}

func TestApplyRejectsBadPosition(t *testing.T) {
	_, err := Standard{}.Apply("not a fen", "e2e4")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIllegalMove)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want Status
	}{
		{"initial", InitialFEN, Status{}},
		{"fools mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", Status{BlackWin, ReasonCheckmate}},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Status{Draw, ReasonStalemate}},
		{"fifty moves", "8/8/4k3/8/8/4K3/4R3/8 w - - 100 80", Status{Draw, ReasonFiftyMove}},
		{"bare kings", "8/8/4k3/8/8/4K3/8/8 w - - 0 1", Status{Draw, ReasonInsufficientMaterial}},
		{"king and knight", "8/8/4k3/8/8/4K3/6N1/8 b - - 3 40", Status{Draw, ReasonInsufficientMaterial}},
		{"rook endgame", "8/8/4k3/8/8/4K3/4R3/8 w - - 99 80", Status{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Standard{}.Classify(tt.pos)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Outcome != NoOutcome, got.Terminal())
		})
	}
}

func TestPositionFields(t *testing.T) {
	p := Position("8/8/4k3/8/8/4K3/4R3/8 b - - 37 61")
	assert.Equal(t, chess.Black, p.Turn())
	assert.Equal(t, 37, p.HalfmoveClock())
	assert.Equal(t, 61, p.FullmoveNumber())
	assert.NoError(t, p.Validate())

	assert.Error(t, Position("garbage").Validate())
	assert.Equal(t, 0, Position("garbage").HalfmoveClock())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "1-0", WinFor(chess.White).String())
	assert.Equal(t, "0-1", WinFor(chess.Black).String())
	assert.Equal(t, "1/2-1/2", Draw.String())
	assert.Equal(t, "*", NoOutcome.String())
}

func TestLegalMoves(t *testing.T) {
	moves, err := Standard{}.LegalMoves(InitialFEN)
	require.NoError(t, err)
	assert.Len(t, moves, 20)
	assert.Contains(t, moves, Move("g1f3"))
}

func TestPGN(t *testing.T) {
	pgn, err := PGN(InitialFEN, []Move{"e2e4", "e7e5", "Nf3"}, map[string]string{"White": "engine", "Black": "stockfish"})
	require.NoError(t, err)

	assert.Contains(t, pgn, `[White "engine"]`)
	assert.Contains(t, pgn, `[Black "stockfish"]`)
	assert.Contains(t, pgn, "1. e4 e5 2. Nf3")
	assert.NotContains(t, pgn, "SetUp")

	_, err = PGN(InitialFEN, []Move{"e2e4", "e2e4"}, nil)
	assert.ErrorIs(t, err, ErrIllegalMove)
}
