package arena

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chessArena/rules"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "arena.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func foolsMate(t *testing.T) GameResult {
	t.Helper()
	ref := &scripted{name: "ref", moves: []rules.Move{"f2f3", "g2g4"}}
	engine := &scripted{name: "engine", moves: []rules.Move{"e7e5", "d8h4"}}
	res := PlayGame(context.Background(), GameSetup{
		Number:      2,
		Engine:      Side{Player: engine, Depth: 2},
		Reference:   Side{Player: ref, Depth: 2},
		EngineColor: chess.Black,
		Log:         zerolog.Nop(),
	})
	res.BlackTime = 1500 * time.Millisecond
	return res
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run, err := s.NewRun(ctx, "engine/alphabeta", "stockfish")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	res := foolsMate(t)
	require.NoError(t, s.SaveGame(ctx, run.ID, "Equal Depth", res))
	require.NoError(t, s.SaveSkipped(ctx, run.ID, "Equal Depth", SkippedGame{Number: 3, EngineColor: chess.White, Err: errNoStart}))

	games, err := s.Games(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "Equal Depth", g.Test)
	assert.Equal(t, 2, g.Number)
	assert.Equal(t, rules.BlackWin, g.Outcome)
	assert.Equal(t, TerminationCheckmate, g.Termination)
	assert.Equal(t, chess.Black, g.EngineColor)
	assert.Equal(t, 4, g.Plies)
	assert.Equal(t, res.Moves, g.Moves)
	assert.Equal(t, res.Final, g.Final)
	assert.Equal(t, 1500*time.Millisecond, g.BlackTime)
	assert.Contains(t, g.PGN, "Qh4#")
	assert.Contains(t, g.PGN, `[Black "engine"]`)
}

func TestStoreSaveGameTwiceFails(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run, err := s.NewRun(ctx, "e", "r")
	require.NoError(t, err)

	res := foolsMate(t)
	require.NoError(t, s.SaveGame(ctx, run.ID, "t", res))
	assert.Error(t, s.SaveGame(ctx, run.ID, "t", res))
}

func TestStoreUnknownRun(t *testing.T) {
	s := openTestStore(t)
	err := s.SaveGame(context.Background(), "missing", "t", foolsMate(t))
	assert.Error(t, err)
}

func TestStoreRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	first, err := s.NewRun(ctx, "e", "r")
	require.NoError(t, err)
	second, err := s.NewRun(ctx, "e", "r")
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
}

func TestRecorderWithRunner(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run, err := s.NewRun(ctx, "Newborn", "random")
	require.NoError(t, err)

	rec := s.Recorder(ctx, run.ID)
	r := newRunner(&sessionCounts{}, func(call int32) bool { return call == 3 }, rec)
	cfg := MatchConfig{Name: "smoke", EngineDepth: 1, ReferenceDepth: 1, Games: 4, MaxPlies: 10}
	report, err := r.Run(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, rec.Err())

	summaries, err := s.Summaries(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, report.Summary(), summaries[0])
}
