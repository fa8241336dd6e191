package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmchat/internal/app/message"
	"dmchat/internal/app/user"
)

func TestUserStore_UniqueUsernameUnderConcurrency(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	const attempts = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Create(ctx, &user.User{ID: fmt.Sprintf("id-%d", i), Username: "alice"})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, user.ErrDuplicateUsername)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestUserStore_SearchAndOnline(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, &user.User{ID: "1", Username: "Alice", CreatedAt: base}))
	require.NoError(t, store.Create(ctx, &user.User{ID: "2", Username: "malice", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, store.Create(ctx, &user.User{ID: "3", Username: "bob", CreatedAt: base.Add(2 * time.Second)}))

	found, err := store.SearchByUsername(ctx, "ALI")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Alice", found[0].Username)
	assert.Equal(t, "malice", found[1].Username)

	updated, err := store.SetOnline(ctx, "3", true, base.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, updated.Online)
	assert.Equal(t, base.Add(time.Hour), updated.LastSeen)

	_, err = store.SetOnline(ctx, "missing", true, base)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserStore_ReturnsCopies(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &user.User{ID: "1", Username: "alice"}))

	u, err := store.GetByID(ctx, "1")
	require.NoError(t, err)
	u.Online = true

	again, err := store.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.False(t, again.Online)
}

func TestMessageStore_ReadFlags(t *testing.T) {
	store := NewMessageStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, m := range []*message.Message{
		{ID: "m1", SenderID: "a", ReceiverID: "b", Timestamp: base},
		{ID: "m2", SenderID: "b", ReceiverID: "a", Timestamp: base.Add(time.Second)},
		{ID: "m3", SenderID: "a", ReceiverID: "b", Timestamp: base.Add(2 * time.Second)},
		{ID: "m4", SenderID: "c", ReceiverID: "b", Timestamp: base.Add(3 * time.Second)},
	} {
		require.NoError(t, store.Save(ctx, m), i)
	}

	n, err := store.CountUnread(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	changed, err := store.MarkAllRead(ctx, "b", "a")
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, "m1", changed[0].ID)
	assert.Equal(t, "m3", changed[1].ID)

	again, err := store.MarkAllRead(ctx, "b", "a")
	require.NoError(t, err)
	assert.Empty(t, again)

	n, err = store.CountUnread(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.MarkDelivered(ctx, "m4"))
	m4, err := store.GetByID(ctx, "m4")
	require.NoError(t, err)
	assert.True(t, m4.Delivered)

	assert.ErrorIs(t, store.MarkDelivered(ctx, "nope"), message.ErrNotFound)
}
