package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/events"
	"github.com/Shinox-lab/dashboard/internal/events/bus"
	ws "github.com/Shinox-lab/dashboard/pkg/websocket"
)

func startGateway(t *testing.T) (*Gateway, bus.EventBus, *gorillaws.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	eventBus := bus.NewMemoryEventBus(logger.Nop())
	t.Cleanup(eventBus.Close)

	gw := NewGateway(func() interface{} {
		return map[string]string{"selectedSquadId": "sq-1"}
	}, logger.Nop())
	go gw.Hub.Run(ctx)
	RegisterEventNotifications(ctx, eventBus, gw.Hub, logger.Nop())

	router := gin.New()
	gw.SetupRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return gw, eventBus, conn
}

func readFrame(t *testing.T, conn *gorillaws.Conn) *ws.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	frame, err := ws.Decode(data)
	require.NoError(t, err)
	return frame
}

func TestGateway_SnapshotOnConnect(t *testing.T) {
	gw, _, conn := startGateway(t)

	frame := readFrame(t, conn)
	assert.Equal(t, ws.FrameSnapshot, frame.Type)
	assert.JSONEq(t, `{"selectedSquadId":"sq-1"}`, string(frame.Payload))
	assert.Eventually(t, func() bool { return gw.Hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestGateway_RelaysEvents(t *testing.T) {
	gw, eventBus, conn := startGateway(t)
	readFrame(t, conn)
	require.Eventually(t, func() bool { return gw.Hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	event := bus.NewEvent(events.SelectionChanged, "state", map[string]string{"squadId": "sq-2"})
	require.NoError(t, eventBus.Publish(context.Background(), events.SelectionChanged, event))

	frame := readFrame(t, conn)
	require.Equal(t, ws.FrameEvent, frame.Type)
	var got bus.Event
	require.NoError(t, frame.ParsePayload(&got))
	assert.Equal(t, events.SelectionChanged, got.Type)
	assert.Equal(t, event.ID, got.ID)
}

func TestGateway_ClientFrames(t *testing.T) {
	_, _, conn := startGateway(t)
	readFrame(t, conn)

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"type":"PING"}`)))
	assert.Equal(t, ws.FramePong, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"type":"SNAPSHOT"}`)))
	assert.Equal(t, ws.FrameSnapshot, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"type":"SUBSCRIBE"}`)))
	frame := readFrame(t, conn)
	require.Equal(t, ws.FrameError, frame.Type)
	var payload ws.ErrorPayload
	require.NoError(t, frame.ParsePayload(&payload))
	assert.Contains(t, payload.Message, "SUBSCRIBE")

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`not json`)))
	assert.Equal(t, ws.FrameError, readFrame(t, conn).Type)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub(nil, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &Client{ID: "c1", hub: hub, send: make(chan []byte, 1), logger: logger.Nop()}
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	_, ok := <-client.send
	assert.False(t, ok)

	// after shutdown these must not block or panic
	hub.Unregister(client)
	client.sendError("late")
}
