package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"chessArena/arena"
)

// Msg конверт сообщения для браузера.
type Msg struct {
	T string                 `json:"t"`
	M map[string]interface{} `json:"m,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub рассылает события матча всем подключенным браузерам.
// Медленный клиент теряет сообщения, матч его не ждет.
type Hub struct {
	allowOrigins map[string]bool
	log          zerolog.Logger

	mu        sync.RWMutex
	clients   map[*client]struct{}
	broadcast chan []byte
	closed    bool
}

func NewHub(allow []string, log zerolog.Logger) *Hub {
	m := map[string]bool{}
	for _, a := range allow {
		if a != "" {
			m[a] = true
		}
	}
	return &Hub{
		allowOrigins: m,
		log:          log,
		clients:      map[*client]struct{}{},
		broadcast:    make(chan []byte, 256),
	}
}

// Run раздает сообщения, пока не вызван Close.
func (h *Hub) Run() {
	for msg := range h.broadcast {
		h.mu.RLock()
		for c := range h.clients {
			select {
			case c.send <- msg:
			default:
			}
		}
		h.mu.RUnlock()
	}
}

// Close останавливает Run. Broadcast после Close ничего не делает.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.broadcast)
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(msg Msg) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("t", msg.T).Msg("marshal")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.log.Warn().Str("t", msg.T).Msg("broadcast queue is full, message dropped")
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	cl := &client{id: uuid.NewString(), conn: c, send: make(chan []byte, 64)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.log.Info().Str("client", cl.id).Msg("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		ping := time.NewTicker(15 * time.Second)
		defer func() { ping.Stop(); _ = c.Close(websocket.StatusNormalClosure, "bye") }()
		for {
			select {
			case msg, ok := <-cl.send:
				if !ok {
					return
				}
				if err := c.Write(ctx, websocket.MessageText, msg); err != nil {
					return
				}
			case <-ping.C:
				_ = c.Ping(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	// входящие сообщения не нужны, чтение только держит соединение
	for {
		if _, _, err := c.Read(ctx); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, cl)
	close(cl.send)
	h.mu.Unlock()
	h.log.Info().Str("client", cl.id).Msg("client disconnected")
}

func colorName(c chess.Color) string {
	if c == chess.Black {
		return "black"
	}
	return "white"
}

func (h *Hub) GameStarted(cfg arena.MatchConfig, number int, engineColor chess.Color) {
	h.Broadcast(Msg{T: "game_started", M: map[string]interface{}{
		"test": cfg.Name, "game": number, "games": cfg.Games, "engine_color": colorName(engineColor),
	}})
}

func (h *Hub) GameFinished(cfg arena.MatchConfig, r arena.GameResult) {
	moves := make([]string, len(r.Moves))
	for i, m := range r.Moves {
		moves[i] = string(m)
	}
	h.Broadcast(Msg{T: "game_finished", M: map[string]interface{}{
		"test": cfg.Name, "game": r.Number, "engine_color": colorName(r.EngineColor),
		"result": r.Outcome.String(), "termination": string(r.Termination), "detail": r.Detail,
		"plies": r.Plies, "final": r.Final.String(), "moves": moves,
	}})
}

func (h *Hub) GameSkipped(cfg arena.MatchConfig, s arena.SkippedGame) {
	msg := ""
	if s.Err != nil {
		msg = s.Err.Error()
	}
	h.Broadcast(Msg{T: "game_skipped", M: map[string]interface{}{
		"test": cfg.Name, "game": s.Number, "engine_color": colorName(s.EngineColor), "error": msg,
	}})
}
