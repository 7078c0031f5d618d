// Package websocket defines the JSON frame protocol spoken with the squad
// orchestration backend and relayed to local gateway clients.
package websocket

import (
	"encoding/json"
	"errors"
	"time"
)

// FrameType is the discriminator of a frame
type FrameType string

// Outbound frames (client to backend).
const (
	FrameSubscribe    FrameType = "SUBSCRIBE"
	FrameUnsubscribe  FrameType = "UNSUBSCRIBE"
	FrameHumanMessage FrameType = "HUMAN_MESSAGE"
	FramePing         FrameType = "PING"
)

// Inbound frames (backend to client).
const (
	FrameMessage         FrameType = "MESSAGE"
	FrameSquadUpdate     FrameType = "SQUAD_UPDATE"
	FrameTaskUpdate      FrameType = "TASK_UPDATE"
	FrameSubscribed      FrameType = "SUBSCRIBED"
	FramePong            FrameType = "PONG"
	FrameGovernanceAlert FrameType = "GOVERNANCE_ALERT"
)

// Local gateway frames (squadwatch to browsers). Browsers may send PING and
// SNAPSHOT.
const (
	FrameSnapshot FrameType = "SNAPSHOT"
	FrameEvent    FrameType = "EVENT"
	FrameError    FrameType = "ERROR"
)

// ErrorPayload is the payload of ERROR
type ErrorPayload struct {
	Message string `json:"message"`
}

// ErrMissingType is returned by Decode for frames without a type tag.
var ErrMissingType = errors.New("frame has no type")

// Frame is the {type, payload} envelope of every websocket message
type Frame struct {
	Type    FrameType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SquadRef is the payload of SUBSCRIBE, UNSUBSCRIBE and SUBSCRIBED
type SquadRef struct {
	SquadID string `json:"squadId"`
}

// HumanMessagePayload is the payload of HUMAN_MESSAGE
type HumanMessagePayload struct {
	Content   string `json:"content"`
	SquadID   string `json:"squadId"`
	Timestamp string `json:"timestamp"`
}

// NewFrame marshals payload into a frame of the given type.
func NewFrame(t FrameType, payload interface{}) (*Frame, error) {
	f := &Frame{Type: t}
	if payload == nil {
		return f, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	f.Payload = data
	return f, nil
}

// NewSubscribe creates a SUBSCRIBE frame for a squad channel
func NewSubscribe(squadID string) *Frame {
	f, _ := NewFrame(FrameSubscribe, SquadRef{SquadID: squadID})
	return f
}

// NewUnsubscribe creates an UNSUBSCRIBE frame for a squad channel
func NewUnsubscribe(squadID string) *Frame {
	f, _ := NewFrame(FrameUnsubscribe, SquadRef{SquadID: squadID})
	return f
}

// NewHumanMessage creates a HUMAN_MESSAGE frame stamped with the current time
func NewHumanMessage(squadID, content string) *Frame {
	f, _ := NewFrame(FrameHumanMessage, HumanMessagePayload{
		Content:   content,
		SquadID:   squadID,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	return f
}

// NewPing creates an application heartbeat frame
func NewPing() *Frame {
	return &Frame{Type: FramePing}
}

// Decode parses raw bytes into a frame. The payload is left undecoded.
func Decode(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Type == "" {
		return nil, ErrMissingType
	}
	return &f, nil
}

// Encode marshals the frame for the wire.
func (f *Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// ParsePayload parses the payload into the given struct
func (f *Frame) ParsePayload(v interface{}) error {
	if len(f.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(f.Payload, v)
}
