package memstore

import (
	"context"
	"sort"
	"sync"

	"dmchat/internal/app/message"
)

// MessageStore is an in-memory message.Store. Messages keep insertion order,
// which breaks timestamp ties.
type MessageStore struct {
	mu   sync.RWMutex
	msgs []*message.Message
	byID map[string]*message.Message
}

// NewMessageStore returns an empty MessageStore.
func NewMessageStore() *MessageStore {
	return &MessageStore{byID: make(map[string]*message.Message)}
}

func copyMessage(m *message.Message) *message.Message {
	c := *m
	return &c
}

func (s *MessageStore) Save(ctx context.Context, m *message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyMessage(m)
	s.msgs = append(s.msgs, stored)
	s.byID[m.ID] = stored
	return nil
}

func (s *MessageStore) GetByID(ctx context.Context, id string) (*message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return nil, message.ErrNotFound
	}
	return copyMessage(m), nil
}

func (s *MessageStore) ListBetween(ctx context.Context, userID1, userID2 string) ([]*message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*message.Message{}
	for _, m := range s.msgs {
		if (m.SenderID == userID1 && m.ReceiverID == userID2) ||
			(m.SenderID == userID2 && m.ReceiverID == userID1) {
			out = append(out, copyMessage(m))
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func (s *MessageStore) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, m := range s.msgs {
		if m.ReceiverID == receiverID && !m.Read {
			n++
		}
	}
	return n, nil
}

func (s *MessageStore) MarkRead(ctx context.Context, id string) (*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return nil, message.ErrNotFound
	}
	m.Read = true
	return copyMessage(m), nil
}

func (s *MessageStore) MarkAllRead(ctx context.Context, receiverID, senderID string) ([]*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*message.Message{}
	for _, m := range s.msgs {
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.Read {
			m.Read = true
			out = append(out, copyMessage(m))
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func (s *MessageStore) MarkDelivered(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return message.ErrNotFound
	}
	m.Delivered = true
	return nil
}

func sortByTimestamp(msgs []*message.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
