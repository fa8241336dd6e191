package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dmchat/internal/pkg/errs"
)

// MaxContentBytes caps the content of a single message.
const MaxContentBytes = 5000

// Service persists and queries direct messages.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service over store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Send validates and persists a new message from senderID to receiverID.
func (s *Service) Send(ctx context.Context, senderID, receiverID, content string, typ Type) (*Message, error) {
	if strings.TrimSpace(senderID) == "" || strings.TrimSpace(receiverID) == "" || strings.TrimSpace(content) == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	if len(content) > MaxContentBytes {
		return nil, errs.NewError(errs.ErrMessageContentTooLong)
	}

	parsed, ok := ParseType(string(typ))
	if !ok {
		return nil, errs.NewError(errs.ErrInvalidMessageType)
	}

	m := &Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		ChatID:     ConversationKey(senderID, receiverID),
		Content:    content,
		Type:       parsed,
		Timestamp:  s.now(),
	}

	if err := s.store.Save(ctx, m); err != nil {
		return nil, errs.NewError(errs.ErrStorage, fmt.Errorf("save message: %w", err))
	}

	return m, nil
}

// History returns the conversation between the two users, oldest first.
func (s *Service) History(ctx context.Context, userID1, userID2 string) ([]*Message, error) {
	msgs, err := s.store.ListBetween(ctx, userID1, userID2)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorage, fmt.Errorf("list conversation: %w", err))
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	return msgs, nil
}

// UnreadCount counts unread messages addressed to userID.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, errs.NewError(errs.ErrStorage, fmt.Errorf("count unread: %w", err))
	}
	return n, nil
}

// MarkRead marks one message read on behalf of readerID, who must be its
// receiver. Marking an already read message is a no-op.
func (s *Service) MarkRead(ctx context.Context, readerID, messageID string) (*Message, error) {
	m, err := s.store.GetByID(ctx, messageID)
	if err != nil {
		return nil, lookupErr(err)
	}
	if m.ReceiverID != readerID {
		return nil, errs.NewError(errs.ErrMessageNotRecipient)
	}
	if m.Read {
		return m, nil
	}

	m, err = s.store.MarkRead(ctx, messageID)
	if err != nil {
		return nil, lookupErr(err)
	}
	return m, nil
}

// MarkAllRead marks every unread message from senderID to receiverID read
// and returns the messages that changed.
func (s *Service) MarkAllRead(ctx context.Context, receiverID, senderID string) ([]*Message, error) {
	msgs, err := s.store.MarkAllRead(ctx, receiverID, senderID)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorage, fmt.Errorf("mark all read: %w", err))
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	return msgs, nil
}

// MarkDelivered records that the message was pushed to its recipient.
func (s *Service) MarkDelivered(ctx context.Context, messageID string) error {
	if err := s.store.MarkDelivered(ctx, messageID); err != nil {
		return lookupErr(err)
	}
	return nil
}

func lookupErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return errs.NewError(errs.ErrMessageNotFound)
	}
	return errs.NewError(errs.ErrStorage, err)
}
