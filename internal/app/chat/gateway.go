package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"dmchat/internal/app/message"
	"dmchat/internal/app/user"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
)

const (
	closeReasonInvalidToken = "Invalid token"
	closeReasonShutdown     = "Server shutting down"
)

// UserDirectory is the part of the user service the gateway needs.
type UserDirectory interface {
	Get(ctx context.Context, id string) (user.Public, error)
	SetOnline(ctx context.Context, id string, online bool) (user.Public, error)
}

// MessageSender is the part of the message service the gateway needs.
type MessageSender interface {
	Send(ctx context.Context, senderID, receiverID, content string, typ message.Type) (*message.Message, error)
	MarkDelivered(ctx context.Context, messageID string) error
}

// Gateway authenticates realtime connections, keeps them in a Registry and
// routes messages between them.
type Gateway struct {
	users    UserDirectory
	messages MessageSender
	tokens   *jwt.TokenService
	registry *Registry

	// presence orders one user's registry changes with the online flag they imply.
	presence userLocks

	// mu guards closing; sessions and inflight are only added to while it is false.
	mu       sync.Mutex
	closing  bool
	sessions sync.WaitGroup
	inflight sync.WaitGroup

	logger zerolog.Logger
}

// NewGateway constructs a Gateway with an empty Registry.
func NewGateway(users UserDirectory, messages MessageSender, tokens *jwt.TokenService) *Gateway {
	return &Gateway{
		users:    users,
		messages: messages,
		tokens:   tokens,
		registry: NewRegistry(),
		logger:   logx.Component("gateway"),
	}
}

// Registry exposes the live connection registry.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// ServeConn runs one upgraded connection until it closes. token is the
// credential presented on the connect request.
func (g *Gateway) ServeConn(ctx context.Context, conn *websocket.Conn, token string) {
	if !g.track(&g.sessions) {
		reject(conn, websocket.CloseGoingAway, closeReasonShutdown)
		return
	}
	defer g.sessions.Done()

	payload, err := g.tokens.Parse(token)
	if err != nil {
		g.logger.Info().Err(err).Msg("Realtime connection rejected: invalid token")
		reject(conn, websocket.CloseUnsupportedData, closeReasonInvalidToken)
		return
	}

	if _, err := g.users.Get(ctx, payload.ID); err != nil {
		if errs.HasCode(err, errs.ErrUserNotFound) {
			g.logger.Info().Str("user_id", payload.ID).Msg("Realtime connection rejected: unknown user")
			reject(conn, websocket.CloseUnsupportedData, closeReasonInvalidToken)
			return
		}
		g.logger.Error().Err(err).Str("user_id", payload.ID).Msg("Realtime connection rejected: user lookup failed")
		reject(conn, websocket.CloseInternalServerErr, "")
		return
	}

	client := newClient(conn, payload.ID, payload.Username)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		client.writePump()
	}()

	g.connect(ctx, client)

	client.readPump(func(frame []byte) {
		g.dispatch(ctx, client, frame)
	})

	client.Close(websocket.CloseNormalClosure, "")
	<-writeDone

	g.disconnect(ctx, client)
}

// connect registers c, displaces any previous connection of the same user
// and announces the session.
func (g *Gateway) connect(ctx context.Context, c *Client) {
	unlock := g.presence.lock(c.userID)
	displaced := g.registry.Register(c)
	if _, err := g.users.SetOnline(ctx, c.userID, true); err != nil {
		c.logger.Error().Err(err).Msg("Failed to mark user online")
	}
	unlock()

	if displaced != nil {
		displaced.Kick()
	}

	if g.isClosing() {
		c.Close(websocket.CloseGoingAway, closeReasonShutdown)
		return
	}

	c.enqueue(ConnectionEstablishedEvent{Type: EventConnectionEstablished, UserID: c.userID})
	c.logger.Info().Msg("Realtime connection established")
}

// disconnect removes c and marks its user offline, unless a newer
// connection for the same user has taken over.
func (g *Gateway) disconnect(ctx context.Context, c *Client) {
	defer g.presence.lock(c.userID)()

	if !g.registry.Unregister(c) {
		c.logger.Info().Msg("Displaced connection closed")
		return
	}

	if _, err := g.users.SetOnline(context.WithoutCancel(ctx), c.userID, false); err != nil {
		c.logger.Error().Err(err).Msg("Failed to mark user offline")
	}
	c.logger.Info().Msg("Realtime connection closed")
}

// dispatch handles one inbound frame. Failures are reported to the sender and
// never end the connection.
func (g *Gateway) dispatch(ctx context.Context, c *Client, frame []byte) {
	evt, err := decodeEvent(frame)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Client sent malformed event")
		g.sendError(c, errs.NewError(errs.ErrInvalidEventFormat))
		return
	}

	if evt == nil {
		c.logger.Debug().Bytes("frame", frame).Msg("Ignoring unsupported event")
		return
	}

	g.handleSend(ctx, c, evt)
}

func (g *Gateway) handleSend(ctx context.Context, c *Client, evt *SendMessageEvent) {
	if !g.track(&g.inflight) {
		g.sendError(c, errs.NewError(errs.ErrServerShuttingDown))
		return
	}
	defer g.inflight.Done()

	m, err := g.messages.Send(ctx, c.userID, evt.ReceiverID, evt.Content, message.Type(evt.MessageType))
	if err != nil {
		c.logger.Warn().Err(err).Str("receiver_id", evt.ReceiverID).Msg("Realtime send failed")
		g.sendError(c, err)
		return
	}

	g.Deliver(ctx, m)

	c.enqueue(MessageEvent{Type: EventMessageSent, Message: m})
}

// Deliver pushes m to its recipient's live connection, if any, and records
// the delivery. It never blocks on the recipient.
func (g *Gateway) Deliver(ctx context.Context, m *message.Message) {
	recipient := g.registry.Lookup(m.ReceiverID)
	if recipient == nil {
		return
	}

	if !recipient.enqueue(MessageEvent{Type: EventNewMessage, Message: m}) {
		return
	}

	if err := g.messages.MarkDelivered(ctx, m.ID); err != nil {
		g.logger.Error().Err(err).Str("message_id", m.ID).Msg("Failed to mark message delivered")
		return
	}
	m.Delivered = true
}

// sendError reports err to c. Internal failures are masked behind a generic
// send failure.
func (g *Gateway) sendError(c *Client, err error) {
	customErr := errs.From(err)
	if customErr.Code >= errs.ErrUnknown && customErr.Code != errs.ErrServerShuttingDown {
		customErr = errs.NewError(errs.ErrMessageSendFailed)
	}

	c.enqueue(ErrorEvent{Type: EventError, Message: customErr.Message})
}

// track adds one to wg unless the gateway is shutting down.
func (g *Gateway) track(wg *sync.WaitGroup) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closing {
		return false
	}
	wg.Add(1)
	return true
}

func (g *Gateway) isClosing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closing
}

// Shutdown stops accepting connections and sends, waits for in-flight sends
// to finish, then closes every registered connection and waits for their
// sessions to end. It returns ctx's error if ctx expires first.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closing = true
	g.mu.Unlock()

	g.logger.Info().Msg("Draining in-flight sends...")
	if err := wait(ctx, &g.inflight); err != nil {
		return err
	}

	clients := g.registry.snapshot()
	for _, c := range clients {
		c.Close(websocket.CloseGoingAway, closeReasonShutdown)
	}

	if err := wait(ctx, &g.sessions); err != nil {
		return err
	}

	g.logger.Info().Int("closed", len(clients)).Msg("Gateway shutdown complete")
	return nil
}

func wait(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("gateway shutdown interrupted"), ctx.Err())
	}
}

// reject closes a connection that never became a session.
func reject(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	if err := conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil {
		logx.Debug("Failed to write close frame", "error", err)
	}
	_ = conn.Close()
}
