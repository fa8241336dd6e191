package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dmchat/internal/app/memstore"
	"dmchat/internal/app/message"
	"dmchat/internal/app/user"
	"dmchat/internal/pkg/auth/jwt"
)

const readTimeout = 2 * time.Second

type harness struct {
	gw       *Gateway
	users    *user.Service
	messages *message.Service
	srv      *httptest.Server
}

type received struct {
	Type    EventType       `json:"type"`
	UserID  string          `json:"userId"`
	Message json.RawMessage `json:"message"`
}

func (e received) message(t *testing.T) *message.Message {
	t.Helper()
	var m message.Message
	require.NoError(t, json.Unmarshal(e.Message, &m))
	return &m
}

func (e received) errorText(t *testing.T) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(e.Message, &s))
	return s
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, func(d UserDirectory) UserDirectory { return d })
}

// newHarnessWith lets a test wrap the user directory the gateway sees.
func newHarnessWith(t *testing.T, wrap func(UserDirectory) UserDirectory) *harness {
	t.Helper()

	tokens := jwt.NewTokenService("gateway-test-secret", time.Hour)
	users := user.NewService(memstore.NewUserStore(), tokens, user.WithHashCost(bcrypt.MinCost))
	messages := message.NewService(memstore.NewMessageStore())
	gw := NewGateway(wrap(users), messages, tokens)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		gw.ServeConn(r.Context(), conn, r.URL.Query().Get("token"))
	}))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = gw.Shutdown(ctx)
		srv.Close()
	})

	return &harness{gw: gw, users: users, messages: messages, srv: srv}
}

func (h *harness) register(t *testing.T, username string) (string, string) {
	t.Helper()
	res, err := h.users.Register(context.Background(), user.RegisterInput{Username: username, Password: "pw"})
	require.NoError(t, err)
	return res.User.ID, res.Token
}

func (h *harness) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// connect dials and consumes the CONNECTION_ESTABLISHED event.
func (h *harness) connect(t *testing.T, token, userID string) *websocket.Conn {
	t.Helper()
	conn := h.dial(t, token)
	evt := readEvent(t, conn)
	require.Equal(t, EventConnectionEstablished, evt.Type)
	require.Equal(t, userID, evt.UserID)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt received
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

// readClose reads until the connection ends and returns the close error.
func readClose(t *testing.T, conn *websocket.Conn) error {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func sendEvent(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func TestGateway_OnlineDelivery(t *testing.T) {
	h := newHarness(t)
	aliceID, aliceToken := h.register(t, "alice")
	bobID, bobToken := h.register(t, "bob")

	alice := h.connect(t, aliceToken, aliceID)
	bob := h.connect(t, bobToken, bobID)

	bobView, err := h.users.Get(context.Background(), bobID)
	require.NoError(t, err)
	assert.True(t, bobView.Online)

	sendEvent(t, alice, SendMessageEvent{Type: EventSendMessage, ReceiverID: bobID, Content: "hello bob"})

	incoming := readEvent(t, bob)
	require.Equal(t, EventNewMessage, incoming.Type)
	pushed := incoming.message(t)
	assert.Equal(t, aliceID, pushed.SenderID)
	assert.Equal(t, bobID, pushed.ReceiverID)
	assert.Equal(t, "hello bob", pushed.Content)

	confirm := readEvent(t, alice)
	require.Equal(t, EventMessageSent, confirm.Type)
	sent := confirm.message(t)
	assert.Equal(t, pushed.ID, sent.ID)
	assert.True(t, sent.Delivered)

	history, err := h.messages.History(context.Background(), aliceID, bobID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sent.ID, history[0].ID)
	assert.True(t, history[0].Delivered)
}

func TestGateway_OfflineRecipientStillConfirmed(t *testing.T) {
	h := newHarness(t)
	aliceID, aliceToken := h.register(t, "alice")
	carolID, _ := h.register(t, "carol")

	alice := h.connect(t, aliceToken, aliceID)

	sendEvent(t, alice, SendMessageEvent{Type: EventSendMessage, ReceiverID: carolID, Content: "are you there?", MessageType: "TEXT"})

	confirm := readEvent(t, alice)
	require.Equal(t, EventMessageSent, confirm.Type)
	sent := confirm.message(t)
	assert.False(t, sent.Delivered)
	assert.False(t, sent.Read)

	history, err := h.messages.History(context.Background(), carolID, aliceID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "are you there?", history[0].Content)

	n, err := h.messages.UnreadCount(context.Background(), carolID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGateway_InvalidTokenRejected(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"malformed token", "not-a-token"},
		{"missing token", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			conn := h.dial(t, tt.token)

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
			_, data, err := conn.ReadMessage()
			require.Error(t, err, "expected close before any event, got %s", data)

			var closeErr *websocket.CloseError
			require.ErrorAs(t, err, &closeErr)
			assert.Equal(t, websocket.CloseUnsupportedData, closeErr.Code)
			assert.Equal(t, "Invalid token", closeErr.Text)
			assert.Equal(t, 0, h.gw.Registry().Len())
		})
	}
}

// gatedDirectory holds SetOnline(true) for one user until release is closed.
type gatedDirectory struct {
	UserDirectory
	blocked atomic.Value
	entered chan struct{}
	release chan struct{}
}

func (d *gatedDirectory) SetOnline(ctx context.Context, id string, online bool) (user.Public, error) {
	if online && d.blocked.Load() == id {
		d.entered <- struct{}{}
		<-d.release
	}
	return d.UserDirectory.SetOnline(ctx, id, online)
}

func TestGateway_SlowPresenceDoesNotBlockOtherUsers(t *testing.T) {
	gated := &gatedDirectory{entered: make(chan struct{}, 1), release: make(chan struct{})}
	h := newHarnessWith(t, func(d UserDirectory) UserDirectory {
		gated.UserDirectory = d
		return gated
	})
	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(func() { close(gated.release) }) }
	t.Cleanup(release)

	aliceID, aliceToken := h.register(t, "alice")
	bobID, bobToken := h.register(t, "bob")
	gated.blocked.Store(aliceID)

	alice := h.dial(t, aliceToken)
	select {
	case <-gated.entered:
	case <-time.After(readTimeout):
		t.Fatal("alice never reached the presence update")
	}

	h.connect(t, bobToken, bobID)

	release()
	evt := readEvent(t, alice)
	assert.Equal(t, EventConnectionEstablished, evt.Type)
	assert.Equal(t, aliceID, evt.UserID)
}

func TestGateway_BadEventsDoNotEndConnection(t *testing.T) {
	h := newHarness(t)
	aliceID, aliceToken := h.register(t, "alice")
	bobID, _ := h.register(t, "bob")

	alice := h.connect(t, aliceToken, aliceID)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("{not json")))
	evt := readEvent(t, alice)
	require.Equal(t, EventError, evt.Type)
	assert.Equal(t, "Invalid message format", evt.errorText(t))

	sendEvent(t, alice, map[string]any{
		"type":       "SEND_MESSAGE",
		"receiverId": bobID,
		"content":    "spoof",
		"senderId":   bobID,
	})
	evt = readEvent(t, alice)
	require.Equal(t, EventError, evt.Type)

	sendEvent(t, alice, SendMessageEvent{Type: EventSendMessage, ReceiverID: bobID, Content: strings.Repeat("x", message.MaxContentBytes+1)})
	evt = readEvent(t, alice)
	require.Equal(t, EventError, evt.Type)
	assert.Equal(t, "Message is too long.", evt.errorText(t))

	sendEvent(t, alice, map[string]any{"type": "TYPING", "receiverId": bobID})

	sendEvent(t, alice, SendMessageEvent{Type: EventSendMessage, ReceiverID: bobID, Content: "still here"})
	evt = readEvent(t, alice)
	require.Equal(t, EventMessageSent, evt.Type)
	assert.Equal(t, aliceID, evt.message(t).SenderID)
}

func TestGateway_NewConnectionDisplacesOld(t *testing.T) {
	h := newHarness(t)
	aliceID, aliceToken := h.register(t, "alice")

	first := h.connect(t, aliceToken, aliceID)
	second := h.connect(t, aliceToken, aliceID)

	err := readClose(t, first)
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, CloseSessionReplaced, closeErr.Code)
	assert.Equal(t, "Session replaced by new connection", closeErr.Text)

	assert.Equal(t, 1, h.gw.Registry().Len())

	sendEvent(t, second, SendMessageEvent{Type: EventSendMessage, ReceiverID: aliceID, Content: "note to self"})
	assert.Equal(t, EventNewMessage, readEvent(t, second).Type)
	assert.Equal(t, EventMessageSent, readEvent(t, second).Type)

	aliceView, err := h.users.Get(context.Background(), aliceID)
	require.NoError(t, err)
	assert.True(t, aliceView.Online)

	require.NoError(t, second.Close())

	assert.Eventually(t, func() bool {
		u, err := h.users.Get(context.Background(), aliceID)
		return err == nil && !u.Online && h.gw.Registry().Len() == 0
	}, readTimeout, 10*time.Millisecond)
}

func TestGateway_Shutdown(t *testing.T) {
	h := newHarness(t)
	aliceID, aliceToken := h.register(t, "alice")

	alice := h.connect(t, aliceToken, aliceID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.gw.Shutdown(ctx))

	err := readClose(t, alice)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Equal(t, 0, h.gw.Registry().Len())

	late := h.dial(t, aliceToken)
	err = readClose(t, late)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
