package services

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub fans core notifications out to websocket clients. Clients
// subscribe to topics ("room.<id>", "game.<id>"); the hub also supports
// per-user unicast for answer results and errors.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        *zap.SugaredLogger
}

type Client struct {
	hub      *Hub
	id       string
	userID   string
	username string
	socket   *websocket.Conn
	send     chan []byte

	topicsMu sync.RWMutex
	topics   map[string]bool

	closeMu sync.Mutex
	onClose func()
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// clientCommand is the inbound frame shape.
type clientCommand struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
	Text  string `json:"text,omitempty"`
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Infow("client registered", "client_id", client.id, "user_id", client.userID, "total", h.ClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.log.Infow("client unregistered", "client_id", client.id, "user_id", client.userID, "total", h.ClientCount())
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// BroadcastToTopic sends the message to every client subscribed to the
// topic. Clients with a full send buffer are dropped.
func (h *Hub) BroadcastToTopic(topic string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorw("failed to marshal broadcast", "topic", topic, "error", err)
		return
	}

	h.mutex.Lock()
	for client := range h.clients {
		if !client.subscribed(topic) {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.mutex.Unlock()
}

// SendToUser delivers a message to every connection the user holds.
func (h *Hub) SendToUser(userID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorw("failed to marshal unicast", "user_id", userID, "error", err)
		return
	}

	h.mutex.Lock()
	for client := range h.clients {
		if client.userID != userID {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.mutex.Unlock()
}

// IsUserConnected reports whether the user has at least one live
// connection.
func (h *Hub) IsUserConnected(userID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.clients {
		if client.userID == userID {
			return true
		}
	}
	return false
}

func (h *Hub) RegisterClient(conn *websocket.Conn, userID, username string) *Client {
	client := &Client{
		hub:      h,
		id:       uuid.New().String(),
		userID:   userID,
		username: username,
		socket:   conn,
		send:     make(chan []byte, 256),
		topics:   make(map[string]bool),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

// SetOnClose registers a callback fired once when the connection's read
// loop exits.
func (c *Client) SetOnClose(fn func()) {
	c.closeMu.Lock()
	c.onClose = fn
	c.closeMu.Unlock()
}

func (c *Client) fireOnClose() {
	c.closeMu.Lock()
	fn := c.onClose
	c.onClose = nil
	c.closeMu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) subscribed(topic string) bool {
	c.topicsMu.RLock()
	defer c.topicsMu.RUnlock()
	return c.topics[topic]
}

func (c *Client) subscribe(topic string) {
	c.topicsMu.Lock()
	c.topics[topic] = true
	c.topicsMu.Unlock()
}

func (c *Client) unsubscribe(topic string) {
	c.topicsMu.Lock()
	delete(c.topics, topic)
	c.topicsMu.Unlock()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
		c.fireOnClose()
	}()

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warnw("websocket read error", "client_id", c.id, "error", err)
			}
			break
		}

		var cmd clientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.hub.log.Warnw("malformed client frame", "client_id", c.id, "error", err)
			continue
		}
		c.handleCommand(cmd)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleCommand(cmd clientCommand) {
	switch cmd.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
		select {
		case c.send <- data:
		default:
		}

	case "subscribe":
		if cmd.Topic != "" {
			c.subscribe(cmd.Topic)
		}

	case "unsubscribe":
		if cmd.Topic != "" {
			c.unsubscribe(cmd.Topic)
		}

	case "chat":
		// Chat is pure pass-through: rebroadcast to the topic without
		// touching core state.
		if cmd.Topic == "" || cmd.Text == "" {
			return
		}
		c.hub.BroadcastToTopic(cmd.Topic, Message{
			Type: "chat",
			Payload: map[string]interface{}{
				"topic":   cmd.Topic,
				"sender":  c.username,
				"user_id": c.userID,
				"text":    cmd.Text,
			},
		})

	default:
		c.hub.log.Debugw("unknown client command", "type", cmd.Type, "client_id", c.id)
	}
}
