package arena

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/notnil/chess"
	"github.com/sebdah/goldie/v2"

	"chessArena/rules"
)

func TestReportGolden(t *testing.T) {
	var buf bytes.Buffer
	r := NewReport(&buf, termenv.Ascii)

	cfg := MatchConfig{Name: "Equal Depth (5 vs 5)", EngineDepth: 5, ReferenceDepth: 5, SkillLevel: skill(10), Games: 4}
	results := []GameResult{
		{Number: 1, Outcome: rules.WhiteWin, Termination: TerminationCheckmate, Plies: 41,
			EngineColor: chess.White, WhiteTime: 1200 * time.Millisecond},
		{Number: 2, Outcome: rules.Draw, Termination: TerminationMaxPlies, Plies: 150,
			EngineColor: chess.Black, BlackTime: 30500 * time.Millisecond},
		{Number: 4, Outcome: rules.WhiteWin, Termination: TerminationTimeout, Plies: 17,
			EngineColor: chess.Black, BlackTime: time.Minute, Detail: "engine bestmove: no response in time"},
	}

	r.MatchStarted(cfg)
	r.GameStarted(cfg, 1, chess.White)
	r.GameFinished(cfg, results[0])
	r.GameFinished(cfg, results[1])
	r.GameSkipped(cfg, SkippedGame{Number: 3, EngineColor: chess.White, Err: errors.New("reference start: handshake timeout")})
	r.GameFinished(cfg, results[2])

	first := Summarize(cfg.Name, results)
	r.Summary(first)

	second := Summarize("Engine Advantage (6 vs 4)", []GameResult{
		{Number: 1, Outcome: rules.WhiteWin, Termination: TerminationCheckmate, Plies: 30, EngineColor: chess.White},
		{Number: 2, Outcome: rules.WhiteWin, Termination: TerminationCheckmate, Plies: 50, EngineColor: chess.Black},
		{Number: 3, Outcome: rules.BlackWin, Termination: TerminationCheckmate, Plies: 50, EngineColor: chess.Black},
	})
	r.Overall([]Summary{first, second})

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "report", buf.Bytes())
}
