package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dmchat/internal/app/message"
)

const messageColumns = `id, sender_id, receiver_id, chat_id, content, type, sent_at, read, delivered`

// MessageStore is the PostgreSQL message.Store.
type MessageStore struct {
	pool *pgxpool.Pool
}

// NewMessageStore returns a MessageStore over pool.
func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func scanMessage(row pgx.Row) (*message.Message, error) {
	var (
		m   message.Message
		typ string
	)
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.ChatID, &m.Content, &typ, &m.Timestamp, &m.Read, &m.Delivered)
	if err != nil {
		if IsNoRows(err) {
			return nil, message.ErrNotFound
		}
		return nil, err
	}
	m.Type = message.Type(typ)
	m.Timestamp = m.Timestamp.UTC()
	return &m, nil
}

func (s *MessageStore) Save(ctx context.Context, m *message.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.SenderID, m.ReceiverID, m.ChatID, m.Content, string(m.Type), m.Timestamp, m.Read, m.Delivered,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *MessageStore) GetByID(ctx context.Context, id string) (*message.Message, error) {
	return scanMessage(s.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

func (s *MessageStore) ListBetween(ctx context.Context, userID1, userID2 string) ([]*message.Message, error) {
	return s.query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY sent_at, seq`,
		userID1, userID2,
	)
}

func (s *MessageStore) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM messages WHERE receiver_id = $1 AND NOT read`, receiverID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *MessageStore) MarkRead(ctx context.Context, id string) (*message.Message, error) {
	return scanMessage(s.pool.QueryRow(ctx, `
		UPDATE messages SET read = TRUE
		WHERE id = $1
		RETURNING `+messageColumns,
		id,
	))
}

func (s *MessageStore) MarkAllRead(ctx context.Context, receiverID, senderID string) ([]*message.Message, error) {
	return s.query(ctx, `
		WITH changed AS (
			UPDATE messages SET read = TRUE
			WHERE receiver_id = $1 AND sender_id = $2 AND NOT read
			RETURNING seq, `+messageColumns+`
		)
		SELECT `+messageColumns+` FROM changed ORDER BY sent_at, seq`,
		receiverID, senderID,
	)
}

func (s *MessageStore) MarkDelivered(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE messages SET delivered = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return message.ErrNotFound
	}
	return nil
}

func (s *MessageStore) query(ctx context.Context, sql string, args ...any) ([]*message.Message, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := []*message.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
