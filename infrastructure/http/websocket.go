package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"mio-messenger/contract"
	"mio-messenger/domain"
	"mio-messenger/domain/event"
	"mio-messenger/infrastructure/ws"
	"mio-messenger/sink"
)

const wsWriteTimeout = 10 * time.Second

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	all := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			all = true
		}
		allowed[origin] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return all || allowed[r.Header.Get("Origin")]
		},
	}
}

// handleWebSocket runs one live session. The token travels as a query
// parameter; an invalid one fails the upgrade with 401 before any socket
// exists.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := s.issuer.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer socket.Close()

	session := &liveSession{
		server:   s,
		socket:   socket,
		userID:   claims.UserID,
		sink:     sink.NewSessionSink(s.bufferSize, s.counters),
		outbound: make(chan ws.Frame, s.bufferSize),
		done:     make(chan struct{}),
	}
	s.log.Info("Live session opened", "user_id", claims.UserID)
	session.run(r)
	s.log.Info("Live session closed", "user_id", claims.UserID)
}

// liveSession owns one socket. A single writer goroutine serializes all
// outgoing frames; the read loop and the sink drain only enqueue.
type liveSession struct {
	server   *Server
	socket   *websocket.Conn
	userID   string
	sink     *sink.SessionSink
	outbound chan ws.Frame
	done     chan struct{}
	subs     []contract.Subscription
}

func (l *liveSession) run(r *http.Request) {
	defer l.unsubscribeAll()
	defer close(l.done)

	go l.writeLoop()
	go l.drainSink()

	l.send(ws.Frame{Type: ws.FrameConnected})
	l.readLoop(r)
}

func (l *liveSession) readLoop(r *http.Request) {
	for {
		var frame ws.Frame
		if err := l.socket.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Type {
		case ws.FrameSubscribe:
			l.handleSubscribe(frame.Channel)
		case ws.FramePublish:
			l.handlePublish(r, frame)
		default:
			l.send(ws.Frame{Type: ws.FrameError, Reason: "unknown frame type"})
		}
	}
}

// handleSubscribe authorizes against the directory: chat channels demand
// membership, directory channels demand ownership.
func (l *liveSession) handleSubscribe(channel string) {
	sub, err := l.server.chats.Subscribe(channel, l.userID, l.sink)
	if err != nil {
		l.send(ws.Frame{Type: ws.FrameError, Channel: channel, Reason: err.Error()})
		return
	}
	l.subs = append(l.subs, sub)
	l.send(ws.Frame{Type: ws.FrameSubscribed, Channel: channel})
}

func (l *liveSession) handlePublish(r *http.Request, frame ws.Frame) {
	chatID, ok := strings.CutPrefix(frame.Channel, "chat:")
	if !ok {
		l.send(ws.Frame{Type: ws.FrameError, Channel: frame.Channel, Reason: "publish is only valid on chat channels"})
		return
	}
	if err := l.server.chats.PostMessage(r.Context(), l.userID, domain.ChatID(chatID), frame.Text); err != nil {
		l.send(ws.Frame{Type: ws.FrameError, Channel: frame.Channel, Reason: err.Error()})
	}
}

// drainSink turns routed events into publication frames.
func (l *liveSession) drainSink() {
	for {
		select {
		case <-l.done:
			return
		case e := <-l.sink.Events:
			frame, ok := l.frameFor(e)
			if !ok {
				continue
			}
			l.send(frame)
		}
	}
}

func (l *liveSession) frameFor(e event.DomainEvent) (ws.Frame, bool) {
	var payload any
	switch ev := e.(type) {
	case event.MessageAppended:
		payload = ev.Message
	case event.ChatCreated:
		payload = ev.Chat
	default:
		return ws.Frame{}, false
	}

	data, err := json.Marshal(payload)
	if err != nil {
		l.server.log.Warn("Encoding publication failed", "channel", e.Channel(), "error", err)
		return ws.Frame{}, false
	}
	return ws.Frame{Type: ws.FramePublication, Channel: e.Channel(), Data: data}, true
}

func (l *liveSession) send(frame ws.Frame) {
	select {
	case l.outbound <- frame:
	case <-l.done:
	}
}

func (l *liveSession) writeLoop() {
	for {
		select {
		case <-l.done:
			return
		case frame := <-l.outbound:
			if err := l.socket.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
			if err := l.socket.WriteJSON(frame); err != nil {
				return
			}
			if frame.Type == ws.FramePublication {
				l.server.counters.Delivered.Add(1)
			}
		}
	}
}

func (l *liveSession) unsubscribeAll() {
	for _, sub := range l.subs {
		l.server.chats.Unsubscribe(sub)
	}
}
