package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mio-messenger/domain"
	"mio-messenger/errors"
	"mio-messenger/session"
)

const writeTimeout = 10 * time.Second

// ClientTransport dials the live endpoint over WebSocket. It implements
// session.Transport: one Dial, one authenticated connection.
type ClientTransport struct {
	log      *slog.Logger
	endpoint string
	dialer   *websocket.Dialer
}

func NewClientTransport(log *slog.Logger, endpoint string) *ClientTransport {
	return &ClientTransport{
		log:      log,
		endpoint: endpoint,
		dialer:   websocket.DefaultDialer,
	}
}

// Dial connects, passes the credential, and blocks until the server
// confirms with a connected frame or ctx expires.
func (t *ClientTransport) Dial(ctx context.Context, credential string) (session.Conn, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", credential)
	u.RawQuery = q.Encode()

	socket, _, err := t.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrTransportFailure, err)
	}

	conn := &clientConn{
		log:        t.log,
		socket:     socket,
		events:     make(chan session.Event, 256),
		subscribed: make(map[string]chan error),
	}

	if err := conn.awaitConnected(ctx); err != nil {
		socket.Close()
		return nil, err
	}

	go conn.readLoop()
	return conn, nil
}

// clientConn wraps one socket. The read loop is the only reader; writes
// are serialized by writeMu.
type clientConn struct {
	log    *slog.Logger
	socket *websocket.Conn
	events chan session.Event

	writeMu sync.Mutex

	subMu      sync.Mutex
	subscribed map[string]chan error

	closeOnce sync.Once
}

func (c *clientConn) Events() <-chan session.Event { return c.events }

// awaitConnected reads frames directly until the connection is confirmed.
// Called before the read loop starts, so there is no reader conflict.
func (c *clientConn) awaitConnected(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeTimeout)
	}
	if err := c.socket.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTransportFailure, err)
	}
	defer c.socket.SetReadDeadline(time.Time{})

	var frame Frame
	if err := c.socket.ReadJSON(&frame); err != nil {
		return fmt.Errorf("%w: waiting for confirmation: %v", errors.ErrTransportFailure, err)
	}
	switch frame.Type {
	case FrameConnected:
		return nil
	case FrameError, FrameDisconnect:
		return fmt.Errorf("%w: %s", errors.ErrAuthFailure, frame.Reason)
	default:
		return fmt.Errorf("%w: unexpected frame %q", errors.ErrTransportFailure, frame.Type)
	}
}

// Subscribe sends the frame and waits for the matching subscribed ack
// from the read loop.
func (c *clientConn) Subscribe(ctx context.Context, channel string) error {
	ack := make(chan error, 1)
	c.subMu.Lock()
	c.subscribed[channel] = ack
	c.subMu.Unlock()

	if err := c.writeFrame(Frame{Type: FrameSubscribe, Channel: channel}); err != nil {
		return err
	}

	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish sends a message on a chat channel. The server assigns the id;
// delivery comes back as a publication like any other.
func (c *clientConn) Publish(_ context.Context, channel, text string) error {
	return c.writeFrame(Frame{Type: FramePublish, Channel: channel, Text: text})
}

func (c *clientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.socket.Close()
	})
	return err
}

func (c *clientConn) writeFrame(frame Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.socket.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTransportFailure, err)
	}
	if err := c.socket.WriteJSON(frame); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTransportFailure, err)
	}
	return nil
}

// readLoop turns frames into session events on the single ordered queue.
// It owns the socket reader and closes the queue when the socket dies.
func (c *clientConn) readLoop() {
	defer close(c.events)
	for {
		var frame Frame
		if err := c.socket.ReadJSON(&frame); err != nil {
			c.events <- session.Disconnected{Reason: err.Error()}
			return
		}

		switch frame.Type {
		case FrameSubscribed:
			c.resolveSubscribe(frame.Channel, nil)
		case FrameError:
			c.resolveSubscribe(frame.Channel, fmt.Errorf("%w: %s", errors.ErrNotAuthorized, frame.Reason))
		case FramePublication:
			payload, err := decodePayload(frame)
			if err != nil {
				c.log.Warn("Dropping undecodable publication", "channel", frame.Channel, "error", err)
				continue
			}
			c.events <- session.Publication{Channel: frame.Channel, Payload: payload}
		case FrameDisconnect:
			c.events <- session.Disconnected{Reason: frame.Reason}
			return
		default:
			c.log.Debug("Ignoring unknown frame", "type", frame.Type)
		}
	}
}

func (c *clientConn) resolveSubscribe(channel string, err error) {
	c.subMu.Lock()
	ack, ok := c.subscribed[channel]
	if ok && err != nil {
		delete(c.subscribed, channel)
	}
	c.subMu.Unlock()
	if !ok {
		return
	}
	select {
	case ack <- err:
	default:
	}
}

// decodePayload picks the payload type from the channel namespace: chat
// channels carry messages, directory channels carry chats.
func decodePayload(frame Frame) (any, error) {
	switch {
	case strings.HasPrefix(frame.Channel, "chat:"):
		var m domain.Message
		if err := json.Unmarshal(frame.Data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case strings.HasPrefix(frame.Channel, "directory:"):
		var chat domain.Chat
		if err := json.Unmarshal(frame.Data, &chat); err != nil {
			return nil, err
		}
		return chat, nil
	default:
		return nil, fmt.Errorf("unknown channel namespace %q", frame.Channel)
	}
}
