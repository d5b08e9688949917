// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/danielhkuo/poll-rooms/broadcast"
	"github.com/danielhkuo/poll-rooms/coordinator"
	"github.com/danielhkuo/poll-rooms/models"
	"github.com/danielhkuo/poll-rooms/poll"
	"github.com/danielhkuo/poll-rooms/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1024

	// sendQueueSize is how many events a viewer may lag behind before it
	// is dropped
	sendQueueSize = 32
)

var (
	ErrSlowConsumer = errors.New("subscriber send queue full")
	errConnClosed   = errors.New("connection closed")
)

// SocketHandler serves GET /ws. Each connection is a broadcast.Subscriber
// that joins and leaves poll rooms by share token.
type SocketHandler struct {
	hub      *broadcast.Hub
	store    store.Store
	reg      *coordinator.Registry
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*socketConn]struct{}
}

func NewSocketHandler(hub *broadcast.Hub, s store.Store, reg *coordinator.Registry) *SocketHandler {
	return &SocketHandler{
		hub:   hub,
		store: s,
		reg:   reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same policy as the CORS middleware: any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*socketConn]struct{}),
	}
}

// Serve handles GET /ws
func (h *SocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newSocketConn(ws)
	h.track(c, true)
	slog.Info("client connected", "conn_id", c.id)

	go c.writeLoop()
	h.readLoop(r.Context(), c)

	h.hub.Drop(c)
	c.close()
	h.track(c, false)
	slog.Info("client disconnected", "conn_id", c.id)
}

// CloseAll disconnects every open socket. Hijacked connections are not
// closed by http.Server.Shutdown, so the server calls this on shutdown.
func (h *SocketHandler) CloseAll() {
	h.mu.Lock()
	conns := make([]*socketConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

// Connections returns the number of open sockets
func (h *SocketHandler) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *SocketHandler) track(c *socketConn, open bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if open {
		h.conns[c] = struct{}{}
	} else {
		delete(h.conns, c)
	}
}

func (h *SocketHandler) readLoop(ctx context.Context, c *socketConn) {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "conn_id", c.id, "error", err)
			}
			return
		}

		var msg models.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}
		h.handleMessage(ctx, c, msg)
	}
}

func (h *SocketHandler) handleMessage(ctx context.Context, c *socketConn, msg models.ClientMessage) {
	switch msg.Type {
	case models.MsgJoinPoll:
		p, err := lookupPoll(ctx, h.store, h.reg, msg.ShareToken)
		if err != nil {
			if !errors.Is(err, poll.ErrNotFound) {
				slog.Error("failed to resolve poll for socket", "conn_id", c.id, "error", err)
			}
			c.sendError("Poll not found")
			return
		}
		c.setToken(p.ID, msg.ShareToken)
		h.hub.Subscribe(p.ID, c)
		c.sendJSON(models.RoomMessage{Type: models.MsgJoined, PollID: p.ID, ShareToken: msg.ShareToken})
		slog.Info("client joined poll", "conn_id", c.id, "poll_id", p.ID)

	case models.MsgLeavePoll:
		pollID, ok := c.pollFor(msg.ShareToken)
		if !ok {
			c.sendError("Not in poll room")
			return
		}
		h.hub.Unsubscribe(pollID, c)
		c.clearToken(pollID)
		c.sendJSON(models.RoomMessage{Type: models.MsgLeft, PollID: pollID, ShareToken: msg.ShareToken})
		slog.Info("client left poll", "conn_id", c.id, "poll_id", pollID)

	default:
		c.sendError("Unknown message type")
	}
}

// socketConn is one viewer connection. Only writeLoop writes data frames.
type socketConn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once

	mu     sync.Mutex
	tokens map[string]string // poll ID -> share token
}

func newSocketConn(ws *websocket.Conn) *socketConn {
	return &socketConn{
		id:     uuid.NewString(),
		ws:     ws,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
		tokens: make(map[string]string),
	}
}

// Deliver queues a voteUpdate without blocking. A viewer whose queue is
// full is disconnected; it recovers by fetching results on reconnect.
func (c *socketConn) Deliver(pollID string, snap poll.Snapshot) error {
	c.mu.Lock()
	token, ok := c.tokens[pollID]
	c.mu.Unlock()
	if !ok {
		// left the room after the publish read its members
		return nil
	}

	data, err := json.Marshal(models.VoteUpdate{
		Type:       models.MsgVoteUpdate,
		PollID:     pollID,
		ShareToken: token,
		Options:    snap.Options,
		TotalVotes: snap.TotalVotes,
	})
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *socketConn) enqueue(data []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.close()
		return ErrSlowConsumer
	}
}

func (c *socketConn) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode socket message", "error", err)
		return
	}
	if err := c.enqueue(data); err != nil {
		slog.Debug("socket message dropped", "conn_id", c.id, "error", err)
	}
}

func (c *socketConn) sendError(message string) {
	c.sendJSON(models.SocketError{Type: models.MsgError, Message: message})
}

func (c *socketConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// close is safe to call from any goroutine, any number of times
func (c *socketConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

func (c *socketConn) setToken(pollID, token string) {
	c.mu.Lock()
	c.tokens[pollID] = token
	c.mu.Unlock()
}

func (c *socketConn) clearToken(pollID string) {
	c.mu.Lock()
	delete(c.tokens, pollID)
	c.mu.Unlock()
}

func (c *socketConn) pollFor(token string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pollID, t := range c.tokens {
		if t == token {
			return pollID, true
		}
	}
	return "", false
}
