package message_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmchat/internal/app/memstore"
	"dmchat/internal/app/message"
	"dmchat/internal/pkg/errs"
)

func TestConversationKey_Symmetric(t *testing.T) {
	assert.Equal(t, message.ConversationKey("u1", "u2"), message.ConversationKey("u2", "u1"))
	assert.Equal(t, "u1_u2", message.ConversationKey("u2", "u1"))
	assert.Equal(t, "a_a", message.ConversationKey("a", "a"))
}

func TestParseType(t *testing.T) {
	tests := []struct {
		raw  string
		want message.Type
		ok   bool
	}{
		{"", message.TypeText, true},
		{"image", message.TypeImage, true},
		{"VOICE", message.TypeAudio, true},
		{"FILE", message.TypeFile, true},
		{"STICKER", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := message.ParseType(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestService_SendValidation(t *testing.T) {
	svc := message.NewService(memstore.NewMessageStore())
	ctx := context.Background()

	_, err := svc.Send(ctx, "a", "b", "   ", message.TypeText)
	assert.True(t, errs.HasCode(err, errs.ErrInvalidParams))

	_, err = svc.Send(ctx, "a", "", "hi", message.TypeText)
	assert.True(t, errs.HasCode(err, errs.ErrInvalidParams))

	_, err = svc.Send(ctx, "a", "b", strings.Repeat("x", message.MaxContentBytes+1), message.TypeText)
	assert.True(t, errs.HasCode(err, errs.ErrMessageContentTooLong))

	_, err = svc.Send(ctx, "a", "b", "hi", message.Type("GIF"))
	assert.True(t, errs.HasCode(err, errs.ErrInvalidMessageType))

	m, err := svc.Send(ctx, "a", "b", strings.Repeat("x", message.MaxContentBytes), "")
	require.NoError(t, err)
	assert.Equal(t, message.TypeText, m.Type)
	assert.Equal(t, "a_b", m.ChatID)
	assert.False(t, m.Read)
	assert.False(t, m.Delivered)
	assert.NotEmpty(t, m.ID)
}

func TestService_HistoryIsSymmetricAndOrdered(t *testing.T) {
	svc := message.NewService(memstore.NewMessageStore())
	ctx := context.Background()

	for _, step := range []struct{ from, to, text string }{
		{"u1", "u2", "hello"},
		{"u2", "u1", "hi"},
		{"u1", "u3", "elsewhere"},
		{"u1", "u2", "how are you"},
	} {
		_, err := svc.Send(ctx, step.from, step.to, step.text, message.TypeText)
		require.NoError(t, err)
	}

	forward, err := svc.History(ctx, "u1", "u2")
	require.NoError(t, err)
	backward, err := svc.History(ctx, "u2", "u1")
	require.NoError(t, err)

	require.Len(t, forward, 3)
	assert.Equal(t, forward, backward)
	assert.Equal(t, "hello", forward[0].Content)
	assert.Equal(t, "hi", forward[1].Content)
	assert.Equal(t, "how are you", forward[2].Content)

	for i := 1; i < len(forward); i++ {
		assert.False(t, forward[i].Timestamp.Before(forward[i-1].Timestamp))
	}

	empty, err := svc.History(ctx, "u2", "u3")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestService_ReadTracking(t *testing.T) {
	svc := message.NewService(memstore.NewMessageStore())
	ctx := context.Background()

	m1, err := svc.Send(ctx, "u1", "u2", "one", message.TypeText)
	require.NoError(t, err)
	_, err = svc.Send(ctx, "u1", "u2", "two", message.TypeText)
	require.NoError(t, err)
	_, err = svc.Send(ctx, "u3", "u2", "other sender", message.TypeText)
	require.NoError(t, err)
	_, err = svc.Send(ctx, "u2", "u1", "reply", message.TypeText)
	require.NoError(t, err)

	n, err := svc.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = svc.MarkRead(ctx, "u1", m1.ID)
	assert.True(t, errs.HasCode(err, errs.ErrMessageNotRecipient))

	read, err := svc.MarkRead(ctx, "u2", m1.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	again, err := svc.MarkRead(ctx, "u2", m1.ID)
	require.NoError(t, err)
	assert.True(t, again.Read)

	n, err = svc.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	changed, err := svc.MarkAllRead(ctx, "u2", "u1")
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "two", changed[0].Content)

	n, err = svc.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	none, err := svc.MarkAllRead(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestService_UnknownMessage(t *testing.T) {
	svc := message.NewService(memstore.NewMessageStore())
	ctx := context.Background()

	_, err := svc.MarkRead(ctx, "u1", "missing")
	assert.True(t, errs.HasCode(err, errs.ErrMessageNotFound))

	err = svc.MarkDelivered(ctx, "missing")
	assert.True(t, errs.HasCode(err, errs.ErrMessageNotFound))
}
