package bot

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/quarto/board"
	"github.com/domino14/quarto/config"
	"github.com/domino14/quarto/game"
	"github.com/domino14/quarto/piece"
	"github.com/domino14/quarto/turnplayer"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.TTableSizeMB = 1
	cfg.TimeBudget = time.Second
	return &cfg
}

func newTestBot() *Bot {
	cfg := testConfig()
	return NewBot(cfg, turnplayer.NewPlayer(*cfg))
}

const winningPlay = `{"request":"play","lives":3,"errors":[],"state":{
	"players":["us","them"],"current":0,
	"board":["SDEC","SLEP","SDFC",null,null,null,null,null,
	         null,null,null,null,null,null,null,null],
	"piece":"SLFP"}}`

// countingPlayer always places on the first empty cell.
type countingPlayer struct {
	calls int
}

func (c *countingPlayer) DecidePlacement(ctx context.Context, s game.State, budget time.Duration) (int, error) {
	return board.AvailablePositions(s.Board)[0], nil
}

func (c *countingPlayer) DecidePieceToConcede(ctx context.Context, s game.State, budget time.Duration) (piece.Piece, error) {
	return s.Remaining().Pieces()[0], nil
}

func (c *countingPlayer) DecideTurn(ctx context.Context, s game.State, budget time.Duration) (turnplayer.Decision, error) {
	c.calls++
	if err := s.CheckPlacement(); err != nil {
		return turnplayer.Decision{}, err
	}
	pos, _ := c.DecidePlacement(ctx, s, budget)
	return turnplayer.Decision{Pos: pos, Piece: s.Remaining().Pieces()[0]}, nil
}

func TestHandlePing(t *testing.T) {
	resp := newTestBot().Handle(context.Background(), []byte(`{"request":"ping"}`))
	assert.Equal(t, Response{Response: ResponsePong}, resp)
}

func TestHandleUnknownAndGarbage(t *testing.T) {
	b := newTestBot()
	resp := b.Handle(context.Background(), []byte(`{"request":"dance"}`))
	assert.Equal(t, ResponseError, resp.Response)
	assert.Contains(t, resp.Error, "dance")

	resp = b.Handle(context.Background(), []byte(`{"request":`))
	assert.Equal(t, ResponseError, resp.Response)
}

func TestHandlePlayWins(t *testing.T) {
	resp := newTestBot().Handle(context.Background(), []byte(winningPlay))
	require.Equal(t, ResponseMove, resp.Response)
	require.NotNil(t, resp.Move)
	assert.Equal(t, 3, resp.Move.Pos)
	assert.True(t, resp.Move.Piece.Valid())
	assert.NotEmpty(t, resp.Message)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pos":3`)
}

func TestHandleInvalidState(t *testing.T) {
	b := newTestBot()
	for _, req := range []string{
		// duplicate piece
		`{"request":"play","state":{"board":["SDEC","SDEC",null,null,null,null,null,null,
			null,null,null,null,null,null,null,null],"piece":"BLFP"}}`,
		// short board
		`{"request":"play","state":{"board":["SDEC"],"piece":"BLFP"}}`,
		// state missing entirely
		`{"request":"play"}`,
		// state of the wrong shape
		`{"request":"play","state":[1,2,3]}`,
		`{"request":"play","state":"SDEC"}`,
		// nothing in hand
		`{"request":"play","state":{"board":[null,null,null,null,null,null,null,null,
			null,null,null,null,null,null,null,null],"piece":null}}`,
	} {
		resp := b.Handle(context.Background(), []byte(req))
		assert.Equal(t, ResponseError, resp.Response)
		assert.Contains(t, resp.Error, "invalid")
	}
}

func TestRepeatedRequestReusesMove(t *testing.T) {
	cfg := testConfig()
	player := &countingPlayer{}
	b := NewBot(cfg, player)

	first := b.Handle(context.Background(), []byte(winningPlay))
	second := b.Handle(context.Background(), []byte(winningPlay))
	require.Equal(t, ResponseMove, second.Response)
	assert.Equal(t, first.Move, second.Move)
	assert.Equal(t, 1, player.calls)

	// the judge complained: decide again.
	var req Request
	require.NoError(t, json.Unmarshal([]byte(winningPlay), &req))
	req.Errors = []json.RawMessage{json.RawMessage(`"bad move"`)}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	b.Handle(context.Background(), data)
	assert.Equal(t, 2, player.calls)
}

func TestServeOverTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	b := newTestBot()
	go func() { done <- b.Serve(ctx, ln) }()

	addr := ln.Addr().String()
	require.NoError(t, Ping(ctx, addr))

	s := game.NewState(board.Empty(), piece.MustParse("SDEC"))
	m, err := RequestMove(ctx, addr, s, 3)
	require.NoError(t, err)
	assert.True(t, board.IsCenter(m.Pos))
	assert.True(t, m.Piece.Valid())
	assert.NotEqual(t, piece.MustParse("SDEC"), m.Piece)

	_, err = RequestMove(ctx, addr, game.NewState(board.Empty(), piece.None), 3)
	assert.ErrorIs(t, err, ErrRefused)

	cancel()
	assert.NoError(t, <-done)
}

// fakeMatchmaker drops the first connection, then accepts subscriptions.
func fakeMatchmaker(t *testing.T) (string, <-chan Request) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	got := make(chan Request, 4)
	go func() {
		for i := 0; ; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			if i == 0 {
				conn.Close()
				continue
			}
			var req Request
			if err := json.NewDecoder(conn).Decode(&req); err == nil {
				got <- req
				json.NewEncoder(conn).Encode(Response{Response: "ok"})
			}
			conn.Close()
		}
	}()
	return ln.Addr().String(), got
}

func TestSubscribeRetries(t *testing.T) {
	addr, got := fakeMatchmaker(t)
	cfg := testConfig()
	cfg.ServerAddress = addr
	cfg.Name = "bobby"
	cfg.Matricules = []string{"23397", "23158"}

	err := Subscribe(context.Background(), cfg, retry.Delay(time.Millisecond))
	require.NoError(t, err)
	req := <-got
	assert.Equal(t, RequestSubscribe, req.Request)
	assert.Equal(t, cfg.Port, req.Port)
	assert.Equal(t, "bobby", req.Name)
	assert.Equal(t, []string{"23397", "23158"}, req.Matricules)
}

func TestSubscribeGivesUp(t *testing.T) {
	// nothing listens here once the listener is closed.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	cfg := testConfig()
	cfg.ServerAddress = addr
	cfg.SubscribeAttempts = 2
	err = Subscribe(context.Background(), cfg, retry.Delay(time.Millisecond))
	assert.Error(t, err)
}

func TestServeNATSBadURL(t *testing.T) {
	err := newTestBot().ServeNATS(context.Background(), "nats://127.0.0.1:1", "quarto.play")
	assert.Error(t, err)
}

func TestLatencySummary(t *testing.T) {
	var l latencies
	_, _, n := l.summary()
	assert.Equal(t, 0, n)
	l.add(10 * time.Millisecond)
	mean, sd, n := l.summary()
	assert.Equal(t, 1, n)
	assert.InDelta(t, 10.0, mean, 1e-9)
	assert.Equal(t, 0.0, sd)
	l.add(20 * time.Millisecond)
	l.add(30 * time.Millisecond)
	mean, sd, _ = l.summary()
	assert.InDelta(t, 20.0, mean, 1e-9)
	assert.InDelta(t, 10.0, sd, 1e-9)
	for i := 0; i < 2*maxLatencySamples; i++ {
		l.add(time.Millisecond)
	}
	_, _, n = l.summary()
	assert.Equal(t, maxLatencySamples, n)
}

func TestJudgeErrors(t *testing.T) {
	errs := judgeErrors([]json.RawMessage{
		json.RawMessage(`"bad move"`),
		json.RawMessage(`{"pos":3}`),
		json.RawMessage(`42`),
	})
	assert.Equal(t, []string{"bad move", `{"pos":3}`, "42"}, errs)
	assert.Empty(t, judgeErrors(nil))
}
