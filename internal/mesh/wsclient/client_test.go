package wsclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	ws "github.com/Shinox-lab/dashboard/pkg/websocket"
)

type fakeConn struct {
	in      chan []byte
	closed  chan struct{}
	once    sync.Once
	mu      sync.Mutex
	written [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 16), closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-f.in:
		return websocket.TextMessage, data, nil
	case <-f.closed:
		return 0, nil, io.EOF
	}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	if messageType != websocket.TextMessage {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) Written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.written))
	for i, w := range f.written {
		out[i] = string(w)
	}
	return out
}

type fakeDialer struct {
	mu    sync.Mutex
	fail  bool
	dials int
	conns []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.fail {
		return nil, errors.New("connection refused")
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) setFail(fail bool) {
	d.mu.Lock()
	d.fail = fail
	d.mu.Unlock()
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) Last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

type recorder struct {
	mu     sync.Mutex
	events []bool
}

func (r *recorder) record(connected bool) {
	r.mu.Lock()
	r.events = append(r.events, connected)
	r.mu.Unlock()
}

func (r *recorder) Events() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.events...)
}

func newTestConnection(d Dialer, maxAttempts int) *Connection {
	return New(Options{
		URL:                  "ws://backend/ws",
		ReconnectInterval:    10 * time.Millisecond,
		MaxReconnectAttempts: maxAttempts,
		Dialer:               d,
	}, logger.Nop())
}

func TestConnect_OpensAndNotifies(t *testing.T) {
	d := &fakeDialer{}
	c := newTestConnection(d, 10)
	rec := &recorder{}
	c.OnConnectionChange(rec.record)

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, StateOpen, c.State())
	assert.Equal(t, 0, c.Attempts())
	assert.Equal(t, []bool{true}, rec.Events())

	// a second Connect while open is a no-op
	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, 1, d.Dials())
	c.Disconnect()
}

func TestReconnect_CounterIncrementsPerCycleAndResetsOnOpen(t *testing.T) {
	d := &fakeDialer{}
	c := New(Options{
		URL:                  "ws://backend/ws",
		ReconnectInterval:    60 * time.Millisecond,
		MaxReconnectAttempts: 10,
		Dialer:               d,
	}, logger.Nop())
	rec := &recorder{}
	c.OnConnectionChange(rec.record)
	require.NoError(t, c.Connect(context.Background()))

	d.Last().Close()
	require.Eventually(t, func() bool {
		return c.State() == StateDisconnected && c.Attempts() == 1
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool { return c.State() == StateOpen }, time.Second, time.Millisecond)
	assert.Equal(t, 0, c.Attempts())
	assert.Equal(t, 2, d.Dials())
	assert.Equal(t, []bool{true, false, true}, rec.Events())
	c.Disconnect()
}

func TestReconnect_StopsAfterMaxAttempts(t *testing.T) {
	d := &fakeDialer{fail: true}
	c := newTestConnection(d, 3)

	err := c.Connect(context.Background())
	require.Error(t, err)

	// one initial dial plus three retries
	require.Eventually(t, func() bool { return d.Dials() == 4 }, time.Second, time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 4, d.Dials())
	assert.Equal(t, 3, c.Attempts())
	assert.Equal(t, StateDisconnected, c.State())

	// an external Connect is the only way out
	d.setFail(false)
	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, StateOpen, c.State())
	assert.Equal(t, 0, c.Attempts())
	c.Disconnect()
}

func TestDisconnect_NoRetry(t *testing.T) {
	d := &fakeDialer{}
	c := newTestConnection(d, 10)
	rec := &recorder{}
	c.OnConnectionChange(rec.record)
	require.NoError(t, c.Connect(context.Background()))

	c.Disconnect()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 1, d.Dials())
	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, []bool{true, false}, rec.Events())
}

func TestSend(t *testing.T) {
	d := &fakeDialer{}
	c := newTestConnection(d, 10)

	err := c.Send(ws.NewSubscribe("sq-1"))
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Send(ws.NewSubscribe("sq-1")))
	assert.Equal(t, []string{`{"type":"SUBSCRIBE","payload":{"squadId":"sq-1"}}`}, d.Last().Written())
	c.Disconnect()
}

func TestFrames_DeliveredInOrder(t *testing.T) {
	d := &fakeDialer{}
	c := newTestConnection(d, 10)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	conn := d.Last()
	for _, f := range []string{`{"type":"A"}`, `{"type":"B"}`, `{"type":"C"}`} {
		conn.in <- []byte(f)
	}
	for _, want := range []string{`{"type":"A"}`, `{"type":"B"}`, `{"type":"C"}`} {
		select {
		case got := <-c.Frames():
			assert.Equal(t, want, string(got))
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for frame")
		}
	}
}

func TestHeartbeat_SendsPing(t *testing.T) {
	d := &fakeDialer{}
	c := New(Options{
		URL:                  "ws://backend/ws",
		ReconnectInterval:    time.Second,
		MaxReconnectAttempts: 1,
		HeartbeatInterval:    5 * time.Millisecond,
		Dialer:               d,
	}, logger.Nop())
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	conn := d.Last()
	require.Eventually(t, func() bool {
		for _, w := range conn.Written() {
			if w == `{"type":"PING"}` {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestGorillaDialer_AgainstServer(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	received := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- string(data)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"SUBSCRIBED","payload":{"squadId":"sq-1"}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	c := New(Options{
		URL:                  "ws" + strings.TrimPrefix(server.URL, "http"),
		ReconnectInterval:    time.Second,
		MaxReconnectAttempts: 0,
	}, logger.Nop())
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	require.NoError(t, c.Send(ws.NewSubscribe("sq-1")))
	select {
	case got := <-received:
		assert.JSONEq(t, `{"type":"SUBSCRIBE","payload":{"squadId":"sq-1"}}`, got)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive subscribe")
	}
	select {
	case frame := <-c.Frames():
		assert.Contains(t, string(frame), "SUBSCRIBED")
	case <-time.After(2 * time.Second):
		t.Fatal("client did not receive ack")
	}
}
