package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chessArena/bots"
	"chessArena/rules"
)

const infoHeight = 60

var (
	lightSquare = color.RGBA{240, 217, 181, 255}
	darkSquare  = color.RGBA{181, 136, 99, 255}
	selectedSq  = color.RGBA{246, 246, 105, 255}
)

// Game доска против тестируемого движка или встроенного бота.
// Ход соперника считается в отдельной горутине, Update только читает состояние.
type Game struct {
	squareSize int
	depth      int
	players    []bots.MovePlayer
	current    int
	log        zerolog.Logger

	mu          sync.Mutex
	pos         rules.Position
	moves       []rules.Move
	status      rules.Status
	playerColor chess.Color
	started     bool
	thinking    bool
	selected    chess.Square
	hasSelected bool
	lastErr     error

	glyphs map[chess.Piece]*ebiten.Image
	square *ebiten.Image
}

func NewGame(players []bots.MovePlayer, depth, squareSize int, log zerolog.Logger) *Game {
	g := &Game{
		squareSize: squareSize,
		depth:      depth,
		players:    players,
		log:        log,
		glyphs:     make(map[chess.Piece]*ebiten.Image),
		square:     ebiten.NewImage(squareSize, squareSize),
	}
	g.reset()
	return g
}

func (g *Game) reset() {
	g.pos = rules.InitialFEN
	g.moves = nil
	g.status = rules.Status{}
	g.started = false
	g.hasSelected = false
	g.lastErr = nil
}

func (g *Game) opponent() bots.MovePlayer {
	return g.players[g.current]
}

func (g *Game) Update() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if inpututil.IsKeyJustPressed(ebiten.KeyR) && !g.thinking {
		g.reset()
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) && !g.thinking {
		g.current = (g.current + 1) % len(g.players)
	}

	if !g.started {
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyW):
			g.start(chess.White)
		case inpututil.IsKeyJustPressed(ebiten.KeyK):
			g.start(chess.Black)
		}
		return nil
	}

	if g.thinking || g.status.Terminal() || g.pos.Turn() != g.playerColor {
		return nil
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		sq, ok := g.squareAt(ebiten.CursorPosition())
		if !ok {
			return nil
		}
		if !g.hasSelected {
			g.selectSquare(sq)
			return nil
		}
		if sq == g.selected {
			g.hasSelected = false
			return nil
		}
		if g.playHuman(g.selected, sq) {
			g.hasSelected = false
			return nil
		}
		g.selectSquare(sq)
	}
	return nil
}

func (g *Game) start(c chess.Color) {
	g.playerColor = c
	g.started = true
	if c == chess.Black {
		g.askOpponent()
	}
}

func (g *Game) selectSquare(sq chess.Square) {
	piece := g.board().Piece(sq)
	g.hasSelected = piece != chess.NoPiece && piece.Color() == g.playerColor
	g.selected = sq
}

// playHuman ход человека from-to, превращение всегда в ферзя.
func (g *Game) playHuman(from, to chess.Square) bool {
	move := rules.Move(from.String() + to.String())
	piece := g.board().Piece(from)
	if piece.Type() == chess.Pawn && (to.Rank() == chess.Rank8 || to.Rank() == chess.Rank1) {
		move += "q"
	}
	next, err := rules.Standard{}.Apply(g.pos, move)
	if err != nil {
		return false
	}
	g.advance(next, move)
	if !g.status.Terminal() {
		g.askOpponent()
	}
	return true
}

func (g *Game) advance(next rules.Position, move rules.Move) {
	g.pos = next
	g.moves = append(g.moves, move)
	g.status = rules.Standard{}.Classify(next)
}

// askOpponent вызывается под g.mu.
func (g *Game) askOpponent() {
	g.thinking = true
	g.lastErr = nil
	pos, player := g.pos, g.opponent()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		move, err := player.BestMove(ctx, pos, g.depth)

		var next rules.Position
		if err == nil {
			next, err = rules.Standard{}.Apply(pos, move)
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		g.thinking = false
		if g.pos != pos {
			// доску сбросили, пока соперник думал
			return
		}
		if err != nil {
			g.log.Error().Err(err).Str("player", player.Name()).Msg("opponent move")
			g.lastErr = err
			g.status = rules.Status{Outcome: rules.WinFor(g.playerColor), Reason: "opponent failed"}
			return
		}
		g.log.Debug().Str("player", player.Name()).Str("move", string(move)).Msg("opponent move")
		g.advance(next, move)
	}()
}

func (g *Game) board() *chess.Board {
	opt, err := chess.FEN(g.pos.String())
	if err != nil {
		return chess.NewGame().Position().Board()
	}
	return chess.NewGame(opt).Position().Board()
}

func (g *Game) squareAt(x, y int) (chess.Square, bool) {
	y -= infoHeight
	size := g.squareSize * 8
	if x < 0 || y < 0 || x >= size || y >= size {
		return 0, false
	}
	file, rank := x/g.squareSize, 7-y/g.squareSize
	if g.playerColor == chess.Black {
		file, rank = 7-file, 7-rank
	}
	return chess.NewSquare(chess.File(file), chess.Rank(rank)), true
}

func (g *Game) screenXY(sq chess.Square) (float64, float64) {
	file, rank := int(sq.File()), int(sq.Rank())
	if g.playerColor == chess.Black {
		file, rank = 7-file, 7-rank
	}
	return float64(file * g.squareSize), float64((7-rank)*g.squareSize + infoHeight)
}

// glyph буква фигуры, увеличенная до клетки.
func (g *Game) glyph(p chess.Piece) *ebiten.Image {
	if img, ok := g.glyphs[p]; ok {
		return img
	}
	img := ebiten.NewImage(8, 16)
	ebitenutil.DebugPrintAt(img, strings.ToUpper(p.Type().String()), 1, 0)
	g.glyphs[p] = img
	return img
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	defer g.mu.Unlock()

	board := g.board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		x, y := g.screenXY(sq)
		clr := lightSquare
		if (int(sq.File())+int(sq.Rank()))%2 == 0 {
			clr = darkSquare
		}
		if g.hasSelected && sq == g.selected {
			clr = selectedSq
		}
		g.square.Fill(clr)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(x, y)
		screen.DrawImage(g.square, op)

		piece := board.Piece(sq)
		if piece == chess.NoPiece {
			continue
		}
		op = &ebiten.DrawImageOptions{}
		scale := float64(g.squareSize) / 16 * 0.8
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(x+float64(g.squareSize)*0.3, y+float64(g.squareSize)*0.1)
		if piece.Color() == chess.Black {
			op.ColorScale.Scale(0.1, 0.1, 0.1, 1)
		}
		screen.DrawImage(g.glyph(piece), op)
	}

	ebitenutil.DebugPrintAt(screen, g.statusLine(), 10, 10)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Opponent: %s (depth %d)  [B] switch  [R] restart",
		g.opponent().Name(), g.depth), 10, 30)
}

func (g *Game) statusLine() string {
	switch {
	case !g.started:
		return "[W] play white  [K] play black"
	case g.lastErr != nil:
		return "Opponent failed: " + g.lastErr.Error()
	case g.status.Terminal():
		return fmt.Sprintf("Game over: %s (%s)", g.status.Outcome, g.status.Reason)
	case g.thinking:
		return "Opponent is thinking..."
	}
	return fmt.Sprintf("Your move, ply %d", len(g.moves)+1)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.squareSize * 8, g.squareSize*8 + infoHeight
}

func newRootCmd() *cobra.Command {
	var (
		enginePath string
		algorithm  string
		depth      int
		squareSize int
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Play against the engine on an interactive board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()

			var players []bots.MovePlayer
			if enginePath != "" {
				engine := bots.NewCLIBot(enginePath)
				engine.Algorithm = algorithm
				engine.Log = log
				players = append(players, engine)
			}
			players = append(players,
				bots.NewMinimaxBot(3, 5*time.Second),
				bots.NewNewbornBot(),
				bots.NewRandomBot(time.Now().UnixNano()),
			)

			g := NewGame(players, depth, squareSize, log)
			w, h := g.Layout(0, 0)
			ebiten.SetWindowSize(w, h)
			ebiten.SetWindowTitle("Chess Arena board")
			return ebiten.RunGame(g)
		},
	}
	cmd.Flags().StringVar(&enginePath, "engine", "", "engine under test executable")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "search algorithm passed to the engine")
	cmd.Flags().IntVar(&depth, "depth", 5, "search depth for the opponent")
	cmd.Flags().IntVar(&squareSize, "square", 80, "square size in pixels")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
