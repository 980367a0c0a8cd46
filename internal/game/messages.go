package game

import (
	"encoding/json"
	"fmt"
)

// Message type for WebSocket communication between client and server.
type MessageType string

const (
	MsgTypeJoin    MessageType = "join"    // Client wants to join (or create) a session
	MsgTypeState   MessageType = "state"   // Server sends the full session state
	MsgTypeMove    MessageType = "move"    // Client selects a card to match
	MsgTypeDraw    MessageType = "draw"    // Client selects a face-down stock card
	MsgTypeUndo    MessageType = "undo"    // Client wants to reverse the last action
	MsgTypeRestart MessageType = "restart" // Client wants to restart the level
	MsgTypeUpdate  MessageType = "update"  // Server sends the outcome of one intent
	MsgTypeError   MessageType = "error"   // Server sends an error message
)

// WsMessage represents a WebSocket message.
type WsMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewWsMessage creates a new WsMessage with a marshaled payload.
func NewWsMessage(msgType MessageType, payload interface{}) (WsMessage, error) {
	if payload == nil {
		return WsMessage{Type: msgType}, nil
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return WsMessage{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return WsMessage{
		Type:    msgType,
		Payload: payloadBytes,
	}, nil
}

// Parse unmarshals the message payload into one of the message types (JoinMessage, StateMessage, etc.)
func (m *WsMessage) Parse() (any, error) {
	var target any
	switch m.Type {
	case MsgTypeJoin:
		target = &JoinMessage{}
	case MsgTypeState:
		target = &StateMessage{}
	case MsgTypeMove:
		target = &MoveMessage{}
	case MsgTypeDraw:
		target = &DrawMessage{}
	case MsgTypeUndo:
		target = &UndoMessage{}
	case MsgTypeRestart:
		target = &RestartMessage{}
	case MsgTypeUpdate:
		target = &UpdateMessage{}
	case MsgTypeError:
		target = &ErrorMessage{}
	default:
		return nil, fmt.Errorf("unknown message type: %s", m.Type)
	}

	if len(m.Payload) == 0 {
		return target, nil
	}

	err := json.Unmarshal(m.Payload, target)
	return target, err
}

// JoinMessage is the payload for MsgTypeJoin. An empty SessionID asks the
// server to mint one.
type JoinMessage struct {
	SessionID string `json:"session_id"`
	LevelID   int    `json:"level_id"`
}

// StateMessage is the payload for MsgTypeState. Cards is the full
// authoritative card list in generation order.
type StateMessage struct {
	SessionID string     `json:"session_id"`
	LevelID   int        `json:"level_id"`
	Cards     []Snapshot `json:"cards"`
	ActiveID  int        `json:"active_id"`
	CanUndo   bool       `json:"can_undo"`
}

// MoveMessage is the payload for MsgTypeMove
type MoveMessage struct {
	CardID int `json:"card_id"`
}

// DrawMessage is the payload for MsgTypeDraw
type DrawMessage struct {
	CardID int `json:"card_id"`
}

// UndoMessage: empty.
type UndoMessage struct{}

// RestartMessage: empty.
type RestartMessage struct{}

// UpdateMessage is the payload for MsgTypeUpdate. It reacts to exactly one
// intent; the carried snapshots are already committed, so the client may
// animate them without blocking further intents.
type UpdateMessage struct {
	Kind     MessageType `json:"kind"`     // The intent this update answers: move, draw or undo
	Accepted bool        `json:"accepted"` // False when the intent was rejected
	Cards    []Snapshot  `json:"cards"`    // Cards the intent touched
	ActiveID int         `json:"active_id"`
	CanUndo  bool        `json:"can_undo"`
}

// ErrorMessage is the payload for MsgTypeError
type ErrorMessage struct {
	Message string `json:"message"`
}
