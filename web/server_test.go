package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"chessArena/arena"
	"chessArena/bots"
	"chessArena/rules"
)

type stubEngine struct {
	move  rules.Move
	err   error
	depth int
}

func (e *stubEngine) Name() string {
	return "stub"
}

func (e *stubEngine) BestMove(ctx context.Context, pos rules.Position, depth int) (rules.Move, error) {
	e.depth = depth
	if e.err != nil {
		return "", &bots.MoveError{Player: e.Name(), Op: "bestmove", Err: e.err}
	}
	return e.move, nil
}

func newTestServer(t *testing.T, engine bots.MovePlayer) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub(nil, zerolog.Nop())
	go hub.Run()
	t.Cleanup(hub.Close)

	srv := &Server{Engine: engine, Hub: hub, Allow: []string{"http://localhost:8000"}, Log: zerolog.Nop()}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, hub
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url+"/engine_move", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestEngineMove(t *testing.T) {
	engine := &stubEngine{move: "e2e4"}
	ts, _ := newTestServer(t, engine)

	resp, body := post(t, ts.URL, fmt.Sprintf(`{"fen": %q, "depth": 4}`, rules.InitialFEN))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, `"move":"e2e4"`)
	assert.Contains(t, body, `"depth":4`)
	assert.Contains(t, body, `"nodes":0`)
	assert.Equal(t, 4, engine.depth)
}

func TestEngineMoveDefaultDepth(t *testing.T) {
	engine := &stubEngine{move: "e2e4"}
	ts, _ := newTestServer(t, engine)

	resp, body := post(t, ts.URL, fmt.Sprintf(`{"fen": %q}`, rules.InitialFEN))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, DefaultDepth, engine.depth)
}

func TestEngineMoveBadRequest(t *testing.T) {
	ts, _ := newTestServer(t, &stubEngine{move: "e2e4"})
	for _, body := range []string{
		`not json`,
		`{"depth": 3}`,
		`{"fen": "garbage", "depth": 3}`,
		fmt.Sprintf(`{"fen": %q, "depth": 99}`, rules.InitialFEN),
	} {
		resp, _ := post(t, ts.URL, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestEngineMoveFailures(t *testing.T) {
	tests := []struct {
		name   string
		engine *stubEngine
		status int
	}{
		{"timeout", &stubEngine{err: bots.ErrTimeout}, http.StatusGatewayTimeout},
		{"crash", &stubEngine{err: bots.ErrProcessFailure}, http.StatusInternalServerError},
		{"garbage", &stubEngine{err: bots.ErrParseFailure}, http.StatusInternalServerError},
		{"illegal", &stubEngine{move: "e2e5"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tt.engine)
			resp, body := post(t, ts.URL, fmt.Sprintf(`{"fen": %q, "depth": 2}`, rules.InitialFEN))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, body, `"error"`)
		})
	}
}

func TestIndexAndHealth(t *testing.T) {
	ts, _ := newTestServer(t, &stubEngine{})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "<html")

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(b))

	resp, err = http.Get(ts.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	ts, _ := newTestServer(t, &stubEngine{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/engine_move", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:8000", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHubStreamsMatchEvents(t *testing.T) {
	ts, hub := newTestServer(t, &stubEngine{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	cfg := arena.MatchConfig{Name: "Equal Depth", Games: 10}
	hub.GameStarted(cfg, 3, chess.Black)
	hub.GameFinished(cfg, arena.GameResult{
		Number: 3, Outcome: rules.BlackWin, Termination: arena.TerminationCheckmate,
		Plies: 4, EngineColor: chess.Black, Moves: []rules.Move{"f2f3", "e7e5", "g2g4", "d8h4"},
	})
	hub.GameSkipped(cfg, arena.SkippedGame{Number: 4, EngineColor: chess.White, Err: errors.New("handshake timeout")})

	var msg Msg
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "game_started", msg.T)
	assert.Equal(t, float64(3), msg.M["game"])
	assert.Equal(t, "black", msg.M["engine_color"])

	msg = Msg{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "game_finished", msg.T)
	assert.Equal(t, "0-1", msg.M["result"])
	assert.Equal(t, "checkmate", msg.M["termination"])
	assert.Len(t, msg.M["moves"], 4)

	msg = Msg{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "game_skipped", msg.T)
	assert.Equal(t, "handshake timeout", msg.M["error"])
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	ts, _ := newTestServer(t, &stubEngine{})
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/ws", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
