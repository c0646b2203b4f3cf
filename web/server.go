package web

import (
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"chessArena/bots"
	"chessArena/rules"
)

//go:embed static/index.html
var indexHTML []byte

const (
	DefaultDepth = 5
	MaxDepth     = 20
)

type moveRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

type moveResponse struct {
	Move  string  `json:"move"`
	Nodes int     `json:"nodes"`
	Time  float64 `json:"time"`
	Depth int     `json:"depth"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server HTTP обертка над тестируемым движком: ход по запросу браузера
// и поток событий матча через Hub.
type Server struct {
	Engine bots.MovePlayer
	Hub    *Hub
	Allow  []string
	Log    zerolog.Logger
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /index.html", s.index)
	mux.HandleFunc("POST /engine_move", s.engineMove)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Hub != nil {
		mux.HandleFunc("GET /ws", s.Hub.ServeWS)
	}
	return cors(s.Allow, mux)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) engineMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad request: " + err.Error()})
		return
	}
	if req.Depth == 0 {
		req.Depth = DefaultDepth
	}
	if req.Depth < 0 || req.Depth > MaxDepth {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "depth is out of range"})
		return
	}
	pos := rules.Position(req.FEN)
	if req.FEN == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "fen is required"})
		return
	}
	if err := pos.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	move, err := s.Engine.BestMove(r.Context(), pos, req.Depth)
	elapsed := time.Since(start)
	if err == nil {
		_, err = rules.Standard{}.Apply(pos, move)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bots.ErrTimeout) {
			status = http.StatusGatewayTimeout
		}
		s.Log.Warn().Err(err).Str("fen", req.FEN).Int("depth", req.Depth).Int("status", status).Msg("engine move failed")
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	s.Log.Debug().Str("fen", req.FEN).Int("depth", req.Depth).Str("move", string(move)).Dur("elapsed", elapsed).Msg("engine move")
	// движок не сообщает число узлов
	writeJSON(w, http.StatusOK, moveResponse{Move: string(move), Nodes: 0, Time: elapsed.Seconds(), Depth: req.Depth})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cors(allow []string, next http.Handler) http.Handler {
	allowSet := map[string]struct{}{}
	for _, a := range allow {
		if a != "" {
			allowSet[a] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if _, ok := allowSet[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
