/*
Package message contains the direct-message model and the messaging service.

A conversation between two users is identified by a key derived purely from
the two participant IDs, so either side computes the same value without any
lookup table.
*/
package message

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by a Store when no message matches the lookup.
var ErrNotFound = errors.New("message not found")

// Type tags the kind of content a message carries.
type Type string

const (
	TypeText   Type = "TEXT"
	TypeImage  Type = "IMAGE"
	TypeVideo  Type = "VIDEO"
	TypeAudio  Type = "AUDIO"
	TypeFile   Type = "FILE"
	TypeSystem Type = "SYSTEM"
)

// conversationKeySeparator joins the two participant IDs of a conversation key.
const conversationKeySeparator = "_"

// ParseType maps a client-supplied tag to a Type. Empty means TEXT; VOICE is
// accepted as an alias of AUDIO.
func ParseType(raw string) (Type, bool) {
	switch Type(strings.ToUpper(strings.TrimSpace(raw))) {
	case "":
		return TypeText, true
	case TypeText:
		return TypeText, true
	case TypeImage:
		return TypeImage, true
	case TypeVideo:
		return TypeVideo, true
	case TypeAudio, "VOICE":
		return TypeAudio, true
	case TypeFile:
		return TypeFile, true
	case TypeSystem:
		return TypeSystem, true
	}
	return "", false
}

// ConversationKey returns the key shared by both directions of a conversation:
// the lexicographically smaller ID first, joined by "_".
func ConversationKey(userID1, userID2 string) string {
	if userID1 < userID2 {
		return userID1 + conversationKeySeparator + userID2
	}
	return userID2 + conversationKeySeparator + userID1
}

// Message is a persisted direct message.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	ChatID     string    `json:"chatId"`
	Content    string    `json:"content"`
	Type       Type      `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
	Delivered  bool      `json:"delivered"`
}

// Store persists messages.
type Store interface {
	Save(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)

	// ListBetween returns messages exchanged between the two users in either
	// direction, ascending by timestamp.
	ListBetween(ctx context.Context, userID1, userID2 string) ([]*Message, error)

	// CountUnread counts messages addressed to receiverID that are not read.
	CountUnread(ctx context.Context, receiverID string) (int64, error)

	// MarkRead sets read=true and returns the message; ErrNotFound if absent.
	MarkRead(ctx context.Context, id string) (*Message, error)

	// MarkAllRead sets read=true on every unread message from senderID to
	// receiverID and returns exactly those messages, ascending by timestamp.
	MarkAllRead(ctx context.Context, receiverID, senderID string) ([]*Message, error)

	// MarkDelivered sets delivered=true; ErrNotFound if absent.
	MarkDelivered(ctx context.Context, id string) error
}
