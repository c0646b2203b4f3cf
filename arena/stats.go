package arena

import (
	"math"
)

// Summary статистика серии партий с точки зрения тестируемого движка.
type Summary struct {
	Name         string
	Games        int
	Wins         int
	Losses       int
	Draws        int
	TotalPlies   int
	Terminations map[Termination]int
}

// Summarize сворачивает результаты. Порядок результатов не важен.
func Summarize(name string, results []GameResult) Summary {
	s := Summary{Name: name, Terminations: make(map[Termination]int)}
	for _, r := range results {
		s.Games++
		s.TotalPlies += r.Plies
		s.Terminations[r.Termination]++
		switch {
		case r.EngineWon():
			s.Wins++
		case r.EngineLost():
			s.Losses++
		case r.IsDraw():
			s.Draws++
		}
	}
	return s
}

// Merge статистика по объединению двух серий, то же, что Summarize по A ++ B.
func (s Summary) Merge(o Summary) Summary {
	m := Summary{
		Name:         s.Name,
		Games:        s.Games + o.Games,
		Wins:         s.Wins + o.Wins,
		Losses:       s.Losses + o.Losses,
		Draws:        s.Draws + o.Draws,
		TotalPlies:   s.TotalPlies + o.TotalPlies,
		Terminations: make(map[Termination]int),
	}
	for t, n := range s.Terminations {
		m.Terminations[t] += n
	}
	for t, n := range o.Terminations {
		m.Terminations[t] += n
	}
	return m
}

// Overall общий итог по нескольким тестам.
func Overall(name string, summaries ...Summary) Summary {
	total := Summary{Name: name, Terminations: make(map[Termination]int)}
	for _, s := range summaries {
		total = total.Merge(s)
	}
	return total
}

func (s Summary) Score() float64 {
	return float64(s.Wins) + 0.5*float64(s.Draws)
}

// WinRate доля набранных очков в процентах, 0 для пустой серии.
func (s Summary) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.Score() / float64(s.Games) * 100
}

func (s Summary) AvgPlies() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.Games)
}

// Forfeits партии, закончившиеся сбоем одного из игроков.
func (s Summary) Forfeits() int {
	n := 0
	for t, c := range s.Terminations {
		if t.Forfeit() {
			n += c
		}
	}
	return n
}

//https://www.chessprogramming.org/Match_Statistics
func (s Summary) EloDifference() float64 {
	if s.Games == 0 {
		return 0
	}
	fraction := s.Score() / float64(s.Games)
	switch {
	case fraction <= 0:
		return math.Inf(-1)
	case fraction >= 1:
		return math.Inf(1)
	}
	return -math.Log(1/fraction-1) * 400 / math.Ln10
}

// LOS вероятность того, что движок сильнее соперника. Ничьи не учитываются.
func (s Summary) LOS() float64 {
	decisive := s.Wins + s.Losses
	if decisive == 0 {
		return 0.5
	}
	return 0.5 + 0.5*math.Erf(float64(s.Wins-s.Losses)/math.Sqrt(2*float64(decisive)))
}
