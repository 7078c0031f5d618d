package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeWireShape(t *testing.T) {
	data, err := NewSubscribe("sq-1").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"SUBSCRIBE","payload":{"squadId":"sq-1"}}`, string(data))

	data, err = NewUnsubscribe("sq-0").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"UNSUBSCRIBE","payload":{"squadId":"sq-0"}}`, string(data))
}

func TestHumanMessageFrame(t *testing.T) {
	f := NewHumanMessage("sq-1", "status?")
	var p HumanMessagePayload
	require.NoError(t, f.ParsePayload(&p))
	assert.Equal(t, "sq-1", p.SquadID)
	assert.Equal(t, "status?", p.Content)
	assert.NotEmpty(t, p.Timestamp)
}

func TestDecode(t *testing.T) {
	f, err := Decode([]byte(`{"type":"TASK_UPDATE","payload":{"id":"t1"}}`))
	require.NoError(t, err)
	assert.Equal(t, FrameTaskUpdate, f.Type)
	assert.Equal(t, json.RawMessage(`{"id":"t1"}`), f.Payload)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestPingHasNoPayload(t *testing.T) {
	data, err := NewPing().Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PING"}`, string(data))
}
