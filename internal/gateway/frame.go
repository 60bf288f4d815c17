package gateway

import (
	"encoding/json"
	"fmt"
)

// Op is a gateway frame opcode.
type Op int

const (
	OpDispatch       Op = 0  // event, both directions
	OpHeartbeat      Op = 1  // client liveness signal
	OpIdentify       Op = 2  // initial handshake with credentials
	OpResume         Op = 6  // resume a previous session
	OpReconnect      Op = 7  // server asks us to reconnect
	OpInvalidSession Op = 9  // resume rejected, session state lost
	OpHello          Op = 10 // first server frame, carries heartbeat interval
	OpHeartbeatAck   Op = 11 // server acknowledges a heartbeat
)

// Frame is one gateway message. The transport layer owns how frames are
// serialized on the wire; the client only sees this shape.
type Frame struct {
	Op   Op              `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
	Seq  int64           `json:"s,omitempty"`
	Type string          `json:"t,omitempty"`
}

// NewFrame marshals v into a frame's data payload.
func NewFrame(op Op, eventType string, v any) (*Frame, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Frame{Op: op, Type: eventType, Data: data}, nil
}

// Inbound dispatch event types.
const (
	EventReady             = "READY"
	EventResumed           = "RESUMED"
	EventMessageCreate     = "MESSAGE_CREATE"
	EventInteractionCreate = "INTERACTION_CREATE"
)

// Outbound dispatch event types.
const (
	EventMessageSend         = "MESSAGE_SEND"
	EventInteractionResponse = "INTERACTION_RESPONSE"
)

// Event is one inbound dispatch delivered to the runtime while Ready.
type Event struct {
	Type string
	Data json.RawMessage
	Seq  int64
}

// User identifies an account on the chat service.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

// Message is the MESSAGE_CREATE payload (text surface).
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Author    User   `json:"author"`
}

// Interaction is the INTERACTION_CREATE payload (structured surface).
type Interaction struct {
	ID        string          `json:"id"`
	ChannelID string          `json:"channel_id"`
	User      User            `json:"user"`
	Data      InteractionData `json:"data"`
}

// InteractionData names the invoked command and its typed options.
type InteractionData struct {
	Name    string            `json:"name"`
	Options map[string]string `json:"options,omitempty"`
}

// MessageSend is the outbound payload for a channel message.
type MessageSend struct {
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

// InteractionResponse is the outbound payload answering an interaction.
type InteractionResponse struct {
	InteractionID string `json:"interaction_id"`
	Content       string `json:"content"`
}

type helloPayload struct {
	HeartbeatInterval int `json:"heartbeat_interval"` // milliseconds
}

type identifyPayload struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS     string `json:"os"`
	Device string `json:"device"`
}

type resumePayload struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

type readyPayload struct {
	SessionID string `json:"session_id"`
	User      User   `json:"user"`
}

// IntentsAll is the blanket event subscription. Narrower scopes are a
// configuration decision (EVENT_INTENTS).
const IntentsAll = 1<<17 - 1
