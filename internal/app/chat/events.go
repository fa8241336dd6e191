package chat

import (
	"bytes"
	"encoding/json"
	"fmt"

	"dmchat/internal/app/message"
)

// EventType tags every realtime frame.
type EventType string

const (
	// inbound
	EventSendMessage EventType = "SEND_MESSAGE"

	// outbound
	EventConnectionEstablished EventType = "CONNECTION_ESTABLISHED"
	EventNewMessage            EventType = "NEW_MESSAGE"
	EventMessageSent           EventType = "MESSAGE_SENT"
	EventError                 EventType = "ERROR"
)

// SendMessageEvent is the only inbound event. The sender is always the
// connection's authenticated user and cannot be supplied by the client.
type SendMessageEvent struct {
	Type        EventType `json:"type"`
	ReceiverID  string    `json:"receiverId"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType,omitempty"`
}

// ConnectionEstablishedEvent is sent once the connection is registered.
type ConnectionEstablishedEvent struct {
	Type   EventType `json:"type"`
	UserID string    `json:"userId"`
}

// MessageEvent carries a persisted message, as NEW_MESSAGE to the recipient
// or MESSAGE_SENT to the sender.
type MessageEvent struct {
	Type    EventType        `json:"type"`
	Message *message.Message `json:"message"`
}

// ErrorEvent reports a failed inbound event to its sender only.
type ErrorEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

// decodeEvent reads the tag of raw and, for known tags, decodes the full
// event strictly. Unknown tags return a nil event and no error.
func decodeEvent(raw []byte) (*SendMessageEvent, error) {
	var envelope struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch envelope.Type {
	case EventSendMessage:
		var evt SendMessageEvent

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&evt); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		if dec.More() {
			return nil, fmt.Errorf("decode %s: trailing data", envelope.Type)
		}
		return &evt, nil

	default:
		return nil, nil
	}
}
