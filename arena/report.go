package arena

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"github.com/notnil/chess"
)

var rule = strings.Repeat("=", 60)

// Report печатает ход матча и итоги для оператора.
type Report struct {
	mu  sync.Mutex
	out *termenv.Output
}

// NewReport профиль termenv.Ascii дает текст без escape-последовательностей.
func NewReport(w io.Writer, profile termenv.Profile) *Report {
	return &Report{out: termenv.NewOutput(w, termenv.WithProfile(profile))}
}

func (r *Report) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Report) colored(s, color string) string {
	return r.out.String(s).Foreground(r.out.Color(color)).String()
}

func (r *Report) MatchStarted(cfg MatchConfig) {
	cfg = cfg.withDefaults()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("%s\n%s\n", rule, r.out.String(cfg.Name).Bold())
	r.printf("  Engine depth: %d\n", cfg.EngineDepth)
	r.printf("  Reference depth: %d\n", cfg.ReferenceDepth)
	if cfg.SkillLevel != nil {
		r.printf("  Reference skill level: %d\n", *cfg.SkillLevel)
	}
	r.printf("  Number of games: %d\n", cfg.Games)
	r.printf("%s\n", rule)
}

func (r *Report) GameStarted(cfg MatchConfig, number int, engineColor chess.Color) {}

func (r *Report) GameFinished(cfg MatchConfig, res GameResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	verdict := r.colored("DREW", "3")
	switch {
	case res.EngineWon():
		verdict = r.colored("WON", "2")
	case res.EngineLost():
		verdict = r.colored("LOST", "1")
	}
	termination := string(res.Termination)
	if res.Termination.Forfeit() {
		termination = r.colored(termination, "1")
	}
	r.printf("Game %d/%d: %s (%s), engine %s %s, %d plies, engine time %.2fs\n",
		res.Number, cfg.Games, res.Outcome, termination, colorName(res.EngineColor), verdict,
		res.Plies, res.EngineTime().Seconds())
	if res.Detail != "" {
		r.printf("  %s\n", res.Detail)
	}
}

func (r *Report) GameSkipped(cfg MatchConfig, s SkippedGame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("Game %d/%d: %s (engine %s): %v\n",
		s.Number, cfg.Games, r.colored("SKIPPED", "1"), colorName(s.EngineColor), s.Err)
}

// Summary итоги одного теста.
func (r *Report) Summary(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("%s\n%s\n%s\n", rule, r.out.String(s.Name).Bold(), rule)
	r.printf("Games played: %d\n", s.Games)
	r.printf("Wins:   %d (%.1f%%)\n", s.Wins, percent(s.Wins, s.Games))
	r.printf("Draws:  %d (%.1f%%)\n", s.Draws, percent(s.Draws, s.Games))
	r.printf("Losses: %d (%.1f%%)\n", s.Losses, percent(s.Losses, s.Games))
	r.printf("Score: %g/%d (%.1f%%)\n", s.Score(), s.Games, s.WinRate())
	r.printf("Average game length: %.1f plies\n", s.AvgPlies())
	r.printf("Elo difference: %s, LOS: %.1f%%\n", formatElo(s.EloDifference()), s.LOS()*100)
	if len(s.Terminations) > 0 {
		r.printf("Terminations: %s\n", formatTerminations(s.Terminations))
	}
	r.printf("%s\n", rule)
}

// Overall сводка по всем тестам плана.
func (r *Report) Overall(summaries []Summary) {
	total := Overall("Total", summaries...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("%s\n%s\n%s\n", rule, r.out.String("OVERALL SUMMARY").Bold(), rule)
	rows := append(append([]Summary(nil), summaries...), total)
	for _, s := range rows {
		r.printf("%s: %g/%d (%.1f%%)\n", s.Name, s.Score(), s.Games, s.WinRate())
	}
	r.printf("%s\n", rule)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func formatElo(elo float64) string {
	switch {
	case math.IsInf(elo, 1):
		return "+inf"
	case math.IsInf(elo, -1):
		return "-inf"
	case elo == 0:
		return "+0.0"
	}
	return fmt.Sprintf("%+.1f", elo)
}

func formatTerminations(m map[Termination]int) string {
	keys := make([]string, 0, len(m))
	for t := range m {
		keys = append(keys, string(t))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, m[Termination(k)]))
	}
	return strings.Join(parts, ", ")
}
