package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// InitialFEN стандартная начальная позиция
const InitialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position снимок партии в нотации FEN. Значение неизменяемое:
// новая позиция получается только через Rules.Apply.
type Position string

// Move ход в нотации движка (e2e4, e7e8q, Nf3 ...). Внутрь хода арена не смотрит.
type Move string

func (p Position) String() string {
	return string(p)
}

func (p Position) fields() []string {
	return strings.Fields(string(p))
}

// Validate проверяет, что FEN разбирается библиотекой правил.
func (p Position) Validate() error {
	if _, err := p.decode(); err != nil {
		return err
	}
	return nil
}

// Turn сторона, которая ходит в позиции.
func (p Position) Turn() chess.Color {
	f := p.fields()
	if len(f) > 1 && f[1] == "b" {
		return chess.Black
	}
	return chess.White
}

// HalfmoveClock полуходы с последнего взятия или хода пешкой.
func (p Position) HalfmoveClock() int {
	return p.intField(4, 0)
}

func (p Position) FullmoveNumber() int {
	return p.intField(5, 1)
}

func (p Position) intField(i, def int) int {
	f := p.fields()
	if len(f) <= i {
		return def
	}
	v, err := strconv.Atoi(f[i])
	if err != nil {
		return def
	}
	return v
}

func (p Position) decode() (*chess.Position, error) {
	opt, err := chess.FEN(string(p))
	if err != nil {
		return nil, fmt.Errorf("bad position %q: %w", string(p), err)
	}
	return chess.NewGame(opt).Position(), nil
}
