package arena

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/notnil/chess"

	"chessArena/rules"
)

//go:embed schema.sql
var schemaSQL string

// Store журнал матчей в SQLite: прогоны, сыгранные и пропущенные партии.
type Store struct {
	db *sql.DB
}

// Run один запуск арены.
type Run struct {
	ID        string
	StartedAt time.Time
	Engine    string
	Reference string
}

// StoredGame партия из журнала вместе с именем теста.
type StoredGame struct {
	Test string
	GameResult
	PGN string
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// один писатель, иначе SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewRun регистрирует прогон. Идентификаторы UUIDv7 упорядочены по времени.
func (s *Store) NewRun(ctx context.Context, engine, reference string) (Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Run{}, fmt.Errorf("new run id: %w", err)
	}
	run := Run{ID: id.String(), StartedAt: time.Now().UTC(), Engine: engine, Reference: reference}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, engine, reference) VALUES (?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(time.RFC3339Nano), run.Engine, run.Reference)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (s *Store) SaveGame(ctx context.Context, runID, test string, r GameResult) error {
	pgn, err := rules.PGN(r.Start, r.Moves, map[string]string{
		"Event":  test,
		"Round":  fmt.Sprint(r.Number),
		"Result": r.Outcome.String(),
		"White":  sideName(r.EngineColor, chess.White),
		"Black":  sideName(r.EngineColor, chess.Black),
	})
	if err != nil {
		// без PGN, если ходы не проходят правила
		pgn = ""
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (run_id, test, number, engine_color, outcome, termination, detail,
			plies, white_ms, black_ms, start_fen, final_fen, moves, pgn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, test, r.Number, colorName(r.EngineColor), r.Outcome.String(), string(r.Termination), r.Detail,
		r.Plies, r.WhiteTime.Milliseconds(), r.BlackTime.Milliseconds(),
		r.Start.String(), r.Final.String(), joinMoves(r.Moves), pgn)
	if err != nil {
		return fmt.Errorf("insert game %d of %q: %w", r.Number, test, err)
	}
	return nil
}

func (s *Store) SaveSkipped(ctx context.Context, runID, test string, g SkippedGame) error {
	msg := ""
	if g.Err != nil {
		msg = g.Err.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO skipped (run_id, test, number, engine_color, error) VALUES (?, ?, ?, ?, ?)`,
		runID, test, g.Number, colorName(g.EngineColor), msg)
	if err != nil {
		return fmt.Errorf("insert skipped game %d of %q: %w", g.Number, test, err)
	}
	return nil
}

// Runs все прогоны, последний первым.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, engine, reference FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		if err := rows.Scan(&run.ID, &started, &run.Engine, &run.Reference); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Games партии прогона в порядке записи.
func (s *Store) Games(ctx context.Context, runID string) ([]StoredGame, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT test, number, engine_color, outcome, termination, detail, plies,
			white_ms, black_ms, start_fen, final_fen, moves, pgn
		FROM games WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []StoredGame
	for rows.Next() {
		var g StoredGame
		var color, outcome, termination, start, final, moves string
		var whiteMS, blackMS int64
		if err := rows.Scan(&g.Test, &g.Number, &color, &outcome, &termination, &g.Detail, &g.Plies,
			&whiteMS, &blackMS, &start, &final, &moves, &g.PGN); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.EngineColor, _ = parseColor(color)
		if g.Outcome, err = parseOutcome(outcome); err != nil {
			return nil, err
		}
		g.Termination = Termination(termination)
		g.WhiteTime = time.Duration(whiteMS) * time.Millisecond
		g.BlackTime = time.Duration(blackMS) * time.Millisecond
		g.Start = rules.Position(start)
		g.Final = rules.Position(final)
		for _, m := range strings.Fields(moves) {
			g.Moves = append(g.Moves, rules.Move(m))
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Summaries статистика по тестам прогона в порядке их первой партии.
func (s *Store) Summaries(ctx context.Context, runID string) ([]Summary, error) {
	games, err := s.Games(ctx, runID)
	if err != nil {
		return nil, err
	}
	var order []string
	byTest := make(map[string][]GameResult)
	for _, g := range games {
		if _, ok := byTest[g.Test]; !ok {
			order = append(order, g.Test)
		}
		byTest[g.Test] = append(byTest[g.Test], g.GameResult)
	}
	summaries := make([]Summary, 0, len(order))
	for _, test := range order {
		summaries = append(summaries, Summarize(test, byTest[test]))
	}
	return summaries, nil
}

// Recorder пишет события матча в журнал. Первая ошибка записи сохраняется в Err.
func (s *Store) Recorder(ctx context.Context, runID string) *Recorder {
	return &Recorder{ctx: ctx, store: s, runID: runID}
}

type Recorder struct {
	ctx   context.Context
	store *Store
	runID string

	mu  sync.Mutex
	err error
}

func (r *Recorder) GameStarted(cfg MatchConfig, number int, engineColor chess.Color) {}

func (r *Recorder) GameFinished(cfg MatchConfig, res GameResult) {
	r.keep(r.store.SaveGame(r.ctx, r.runID, cfg.Name, res))
}

func (r *Recorder) GameSkipped(cfg MatchConfig, g SkippedGame) {
	r.keep(r.store.SaveSkipped(r.ctx, r.runID, cfg.Name, g))
}

func (r *Recorder) keep(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func sideName(engine, side chess.Color) string {
	if engine == side {
		return "engine"
	}
	return "reference"
}

func joinMoves(moves []rules.Move) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = string(m)
	}
	return strings.Join(parts, " ")
}

func parseOutcome(s string) (rules.Outcome, error) {
	for _, o := range []rules.Outcome{rules.WhiteWin, rules.BlackWin, rules.Draw, rules.NoOutcome} {
		if o.String() == s {
			return o, nil
		}
	}
	return rules.NoOutcome, errors.New("unknown outcome " + s)
}
