package bots

import (
	"github.com/notnil/chess"
)

type DefaultEvaluator struct{}

const (
	MaterialWeight      = 100
	PawnStructWeight    = 30
	KingSafetyWeight    = 50
	CenterWeight        = 20
	PieceActivityWeight = 15
)

var pieceValues = map[chess.PieceType]float64{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
}

var center = []chess.Square{chess.D4, chess.E4, chess.D5, chess.E5}

// Evaluate оценка с точки зрения белых.
func (e DefaultEvaluator) Evaluate(pos *chess.Position) float64 {
	board := pos.Board()
	return e.material(board)*MaterialWeight +
		e.pawnStructure(board)*PawnStructWeight +
		e.kingSafety(board)*KingSafetyWeight +
		e.centerControl(board)*CenterWeight +
		e.pieceActivity(board)*PieceActivityWeight
}

func sign(c chess.Color) float64 {
	if c == chess.Black {
		return -1
	}
	return 1
}

func (e DefaultEvaluator) material(board *chess.Board) float64 {
	var score float64
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece != chess.NoPiece {
			score += sign(piece.Color()) * pieceValues[piece.Type()]
		}
	}
	return score
}

// pawnStructure штраф за сдвоенные и изолированные пешки.
func (e DefaultEvaluator) pawnStructure(board *chess.Board) float64 {
	var files [2][8]int
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece.Type() != chess.Pawn {
			continue
		}
		side := 0
		if piece.Color() == chess.Black {
			side = 1
		}
		files[side][sq.File()]++
	}

	var score float64
	for side, pawns := range files {
		s := 1.0
		if side == 1 {
			s = -1
		}
		for f, count := range pawns {
			if count == 0 {
				continue
			}
			if count > 1 {
				score -= s * 0.3 * float64(count-1)
			}
			left := f > 0 && pawns[f-1] > 0
			right := f < 7 && pawns[f+1] > 0
			if !left && !right {
				score -= s * 0.5
			}
		}
	}
	return score
}

func (e DefaultEvaluator) kingSafety(board *chess.Board) float64 {
	var score float64
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece.Type() == chess.King {
			score += sign(piece.Color()) * e.kingShelter(sq, piece.Color(), board)
		}
	}
	return score
}

// kingShelter свои фигуры рядом с королем защищают, чужие угрожают.
func (e DefaultEvaluator) kingShelter(kingSq chess.Square, color chess.Color, board *chess.Board) float64 {
	var score float64
	kf, kr := int(kingSq.File()), int(kingSq.Rank())
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			f, r := kf+df, kr+dr
			if (df == 0 && dr == 0) || f < 0 || f > 7 || r < 0 || r > 7 {
				continue
			}
			piece := board.Piece(chess.NewSquare(chess.File(f), chess.Rank(r)))
			switch piece.Color() {
			case color:
				score += 0.2
			case color.Other():
				score -= 0.3
			}
		}
	}
	return score
}

func (e DefaultEvaluator) centerControl(board *chess.Board) float64 {
	var score float64
	for _, sq := range center {
		piece := board.Piece(sq)
		if piece != chess.NoPiece {
			score += sign(piece.Color()) * 0.25
		}
	}
	return score
}

// pieceActivity бонус за фигуры на половине соперника и в расширенном центре.
func (e DefaultEvaluator) pieceActivity(board *chess.Board) float64 {
	var score float64
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece == chess.NoPiece || piece.Type() == chess.King || piece.Type() == chess.Pawn {
			continue
		}
		rank, file := int(sq.Rank()), int(sq.File())
		if (piece.Color() == chess.White && rank >= 4) || (piece.Color() == chess.Black && rank <= 3) {
			score += sign(piece.Color()) * 0.1
		}
		if file >= 2 && file <= 5 && rank >= 2 && rank <= 5 {
			score += sign(piece.Color()) * 0.15
		}
	}
	return score
}
