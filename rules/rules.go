package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/notnil/chess"
)

var ErrIllegalMove = errors.New("illegal move")

// Outcome итог партии
type Outcome uint8

const (
	NoOutcome Outcome = iota
	WhiteWin
	BlackWin
	Draw
)

func (o Outcome) String() string {
	switch o {
	case WhiteWin:
		return "1-0"
	case BlackWin:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	}
	return "*"
}

// WinFor победа стороны c.
func WinFor(c chess.Color) Outcome {
	if c == chess.Black {
		return BlackWin
	}
	return WhiteWin
}

type Reason string

const (
	ReasonCheckmate            Reason = "checkmate"
	ReasonStalemate            Reason = "stalemate"
	ReasonFiftyMove            Reason = "fifty-move"
	ReasonInsufficientMaterial Reason = "insufficient-material"
)

// Status классификация позиции: продолжается или окончена с результатом.
type Status struct {
	Outcome Outcome
	Reason  Reason
}

func (s Status) Terminal() bool {
	return s.Outcome != NoOutcome
}

// Standard правила классических шахмат поверх github.com/notnil/chess.
type Standard struct{}

// Apply применяет ход к позиции. Ход принимается в UCI (e2e4, e7e8q)
// или в SAN (e4, Nf3, O-O).
func (Standard) Apply(pos Position, move Move) (Position, error) {
	cp, err := pos.decode()
	if err != nil {
		return "", err
	}
	m, err := findMove(cp, string(move))
	if err != nil {
		return "", err
	}
	return Position(cp.Update(m).String()), nil
}

// Classify распознает мат, пат, правило 50 ходов и недостаток материала.
// Позиция с ошибкой в FEN считается продолжающейся: такие позиции
// отсекаются до начала партии.
func (Standard) Classify(pos Position) Status {
	// 100 полуходов - ничья независимо от шахов и материала
	if pos.HalfmoveClock() >= 100 {
		return Status{Outcome: Draw, Reason: ReasonFiftyMove}
	}
	cp, err := pos.decode()
	if err != nil {
		return Status{}
	}
	switch cp.Status() {
	case chess.Checkmate:
		return Status{Outcome: WinFor(cp.Turn().Other()), Reason: ReasonCheckmate}
	case chess.Stalemate:
		return Status{Outcome: Draw, Reason: ReasonStalemate}
	}
	if insufficientMaterial(cp.Board()) {
		return Status{Outcome: Draw, Reason: ReasonInsufficientMaterial}
	}
	return Status{}
}

// LegalMoves ходы позиции в UCI.
func (Standard) LegalMoves(pos Position) ([]Move, error) {
	cp, err := pos.decode()
	if err != nil {
		return nil, err
	}
	var moves []Move
	for _, m := range cp.ValidMoves() {
		moves = append(moves, Move(m.String()))
	}
	return moves, nil
}

// PGN запись партии из начальной позиции и списка ходов.
func PGN(start Position, moves []Move, tags map[string]string) (string, error) {
	opt, err := chess.FEN(string(start))
	if err != nil {
		return "", fmt.Errorf("bad position %q: %w", string(start), err)
	}
	game := chess.NewGame(opt)

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		game.AddTagPair(k, tags[k])
	}
	if start != InitialFEN {
		game.AddTagPair("SetUp", "1")
		game.AddTagPair("FEN", string(start))
	}

	for i, mv := range moves {
		m, err := findMove(game.Position(), string(mv))
		if err != nil {
			return "", fmt.Errorf("ply %d: %w", i+1, err)
		}
		if err := game.Move(m); err != nil {
			return "", fmt.Errorf("ply %d: %w", i+1, err)
		}
	}
	return game.String(), nil
}

func findMove(pos *chess.Position, token string) (*chess.Move, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty move", ErrIllegalMove)
	}
	valid := pos.ValidMoves()

	uci := strings.ToLower(token)
	for _, m := range valid {
		if m.String() == uci {
			return m, nil
		}
	}

	san := strings.TrimRight(token, "+#!?")
	notation := chess.AlgebraicNotation{}
	for _, m := range valid {
		if strings.TrimRight(notation.Encode(pos, m), "+#") == san {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIllegalMove, token)
}

// insufficientMaterial только короли и не больше одной легкой фигуры.
func insufficientMaterial(board *chess.Board) bool {
	minors := 0
	for sq := chess.A1; sq <= chess.H8; sq++ {
		switch board.Piece(sq).Type() {
		case chess.Pawn, chess.Rook, chess.Queen:
			return false
		case chess.Knight, chess.Bishop:
			minors++
		}
	}
	return minors <= 1
}
