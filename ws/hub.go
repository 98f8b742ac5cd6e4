// Package ws is the real-time transport: websocket connections addressed by named groups.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"nhooyr.io/websocket"
)

const (
	defaultSendBuffer     = 64
	defaultPingInterval   = 15 * time.Second
	defaultWriteTimeout   = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
	readLimit             = 32 << 10
)

var (
	ErrSlowClient   = errors.New("client send buffer is full")
	ErrClientClosed = errors.New("client connection closed")
)

// Envelope is the frame exchanged in both directions: T names the message, M carries it.
type Envelope struct {
	T string          `json:"t"`
	M json.RawMessage `json:"m,omitempty"`
}

// RequestHandler receives every inbound message of a connection, one at a time.
type RequestHandler func(ctx context.Context, c i.Caller, method string, payload json.RawMessage)

// DisconnectHandler is called once a connection is gone, with the groups it was in.
type DisconnectHandler func(c i.Caller, groups []string)

// Client is one authenticated websocket connection.
type Client struct {
	id        string
	userID    uuid.UUID
	send      chan []byte
	done      chan struct{}
	closeSlow func()
}

func (c *Client) ConnID() string {
	return c.id
}

func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// Send queues an event for this connection. A client that cannot keep up is disconnected.
func (c *Client) Send(event string, payload any) error {
	msg, err := encode(event, payload)
	if err != nil {
		return err
	}
	return c.enqueue(msg)
}

func (c *Client) enqueue(msg []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		go c.closeSlow()
		return ErrSlowClient
	}
}

func encode(event string, payload any) ([]byte, error) {
	m, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", event, err)
	}
	return json.Marshal(Envelope{T: event, M: m})
}

// Hub keeps every live connection and the groups they joined.
// Implements i.GroupTransport.
type Hub struct {
	allowedOrigins []string
	sendBuffer     int
	pingInterval   time.Duration
	writeTimeout   time.Duration
	requestTimeout time.Duration
	logger         i.Logger

	clients      map[string]*Client
	groups       map[string]map[string]*Client
	onRequest    RequestHandler
	onDisconnect DisconnectHandler
	mu           deadlock.RWMutex
}

type Config struct {
	AllowedOrigins []string // host patterns accepted besides same-origin requests
	SendBuffer     int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	Logger         i.Logger
}

func NewHub(c *Config) (*Hub, error) {
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}
	h := &Hub{
		allowedOrigins: c.AllowedOrigins,
		sendBuffer:     c.SendBuffer,
		pingInterval:   c.PingInterval,
		writeTimeout:   c.WriteTimeout,
		requestTimeout: c.RequestTimeout,
		logger:         c.Logger,
		clients:        make(map[string]*Client),
		groups:         make(map[string]map[string]*Client),
		onRequest:      func(context.Context, i.Caller, string, json.RawMessage) {},
		onDisconnect:   func(i.Caller, []string) {},
	}
	if h.sendBuffer <= 0 {
		h.sendBuffer = defaultSendBuffer
	}
	if h.pingInterval <= 0 {
		h.pingInterval = defaultPingInterval
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = defaultWriteTimeout
	}
	if h.requestTimeout <= 0 {
		h.requestTimeout = defaultRequestTimeout
	}
	return h, nil
}

// SetClientRequestHandler sets the function called for each inbound message.
func (h *Hub) SetClientRequestHandler(f RequestHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRequest = f
}

// SetDisconnectHandler sets the function called when a connection ends.
func (h *Hub) SetDisconnectHandler(f DisconnectHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDisconnect = f
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades the request and runs the connection for userID until it ends.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("accepting websocket: %w", err)
	}
	defer conn.Close(websocket.StatusInternalError, "operational fault")
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := &Client{
		id:     uuid.NewString(),
		userID: userID,
		send:   make(chan []byte, h.sendBuffer),
		done:   make(chan struct{}),
		closeSlow: func() {
			conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages")
		},
	}
	h.add(client)
	defer h.remove(client)
	h.logger.Info(fmt.Sprintf("client %s connected for user %s", client.id, userID))

	go h.writeLoop(ctx, cancel, conn, client)

	err = h.readLoop(ctx, conn, client)
	if errors.Is(err, context.Canceled) ||
		websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return nil
	}
	return err
}

func (h *Hub) readLoop(ctx context.Context, conn *websocket.Conn, client *Client) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.T == "" {
			_ = client.Send("Error", "malformed message")
			continue
		}

		h.mu.RLock()
		handle := h.onRequest
		h.mu.RUnlock()

		reqCtx, cancel := context.WithTimeout(ctx, h.requestTimeout)
		handle(reqCtx, client, env.T, env.M)
		cancel()
	}
}

func (h *Hub) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, client *Client) {
	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()
	defer cancel()

	for {
		select {
		case msg := <-client.send:
			if err := writeTimeout(ctx, h.writeTimeout, conn, msg); err != nil {
				h.logger.Warning(fmt.Sprintf("client %s missed write timeout; disconnecting", client.id))
				return
			}
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, h.writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				h.logger.Warning(fmt.Sprintf("client %s missed ping: %v", client.id, err))
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, msg)
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

// remove drops the client from the hub and every group, then reports the groups it left.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	close(c.done)
	delete(h.clients, c.id)
	var left []string
	for name, members := range h.groups {
		if _, ok := members[c.id]; !ok {
			continue
		}
		delete(members, c.id)
		left = append(left, name)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
	onDisconnect := h.onDisconnect
	h.mu.Unlock()

	h.logger.Info(fmt.Sprintf("client %s disconnected", c.id))
	onDisconnect(c, left)
}

// Join adds a live connection to a group. Unknown connections are ignored.
func (h *Hub) Join(group string, c i.Caller) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[c.ConnID()]
	if !ok {
		return
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*Client)
		h.groups[group] = members
	}
	members[client.id] = client
}

// Leave removes a connection from a group.
func (h *Hub) Leave(group string, c i.Caller) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, c.ConnID())
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// Broadcast sends an event to every member of a group.
func (h *Hub) Broadcast(group, event string, payload any) {
	h.broadcast(group, "", event, payload)
}

// BroadcastOthers sends an event to every member of a group except the sender.
func (h *Hub) BroadcastOthers(group string, sender i.Caller, event string, payload any) {
	h.broadcast(group, sender.ConnID(), event, payload)
}

func (h *Hub) broadcast(group, skip, event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		h.logger.Error(fmt.Sprintf("broadcasting to %s: %v", group, err))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.groups[group]))
	for id, c := range h.groups[group] {
		if id != skip {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.enqueue(msg); errors.Is(err, ErrSlowClient) {
			h.logger.Warning(fmt.Sprintf("dropping slow client %s from %s", c.id, group))
		}
	}
}
