package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/driftlabs/driftline/internal/auth"
	"github.com/driftlabs/driftline/internal/infrastructure/config"
	"github.com/driftlabs/driftline/internal/infrastructure/logging"
)

// Pub/sub channel names.
const (
	// ChannelNotifications receives connection lifecycle events.
	// Every connection is subscribed automatically.
	ChannelNotifications = "global-notifications"

	// ChannelChat receives chat messages. Subscribed on authentication.
	ChannelChat = "global-chat"
)

// UserChannel returns the private channel name for a user.
func UserChannel(userID int64) string {
	return fmt.Sprintf("user-%d", userID)
}

// Client message types.
const (
	WSTypeAuthenticate = "authenticate"
	WSTypeChatMessage  = "chat_message"
	WSTypePing         = "ping"
)

// wsSendBufferSize is the per-client outbound message buffer size.
const wsSendBufferSize = 256

// wsInbound is a message received from a WebSocket client.
type wsInbound struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// Hub manages WebSocket connections and broadcasts messages to
// channel subscribers.
type Hub struct {
	cfg        config.WebSocketConfig
	logger     *logging.Logger
	clients    map[*WSClient]struct{}
	mu         sync.RWMutex
	nextChatID int64
	chatIDMu   sync.Mutex
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	jwtSecret     string
	connected     string
	subscriptions map[string]struct{}
	mu            sync.RWMutex
	// Identity, set once by a successful authenticate message.
	authenticated bool
	userID        int64
	username      string
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by the permissive CORS policy
		return true
	},
}

// NewHub creates a new WebSocket hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run starts the hub's main loop. It blocks until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

// Unregister removes a client from the hub.
// Only the goroutine that successfully removes the client from the map
// closes the send channel, preventing double-close panics during shutdown.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// Broadcast sends a message to all clients subscribed to the given channel.
// Lock ordering: hub lock is acquired first, then released before per-client
// subscription checks. This avoids holding both hub and client locks
// simultaneously.
func (h *Hub) Broadcast(channel string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	// Snapshot client list under hub lock, then release before sending
	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sentCount := 0
	for _, client := range clients {
		if client.isSubscribed(channel) {
			client.trySend(data)
			sentCount++
		}
	}
	if sentCount > 0 {
		h.logger.Debug("broadcast sent", "channel", channel, "recipients", sentCount)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NextChatID returns a monotonically increasing chat message ID.
func (h *Hub) NextChatID() int64 {
	h.chatIDMu.Lock()
	defer h.chatIDMu.Unlock()
	h.nextChatID++
	return h.nextChatID
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// handleWebSocket upgrades the HTTP connection to a WebSocket connection.
// No authentication is required to connect; chat requires an in-band
// authenticate message.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		jwtSecret:     s.jwtSecret,
		connected:     time.Now().UTC().Format(time.RFC3339),
		subscriptions: make(map[string]struct{}),
	}

	// Every connection hears lifecycle notifications
	client.subscribe(ChannelNotifications)

	s.hub.Register(client)

	go client.writePump(s.cfg.WebSocket)
	go client.readPump(s.cfg.WebSocket)

	client.sendMessage(map[string]any{
		"type":      "welcome",
		"message":   "Connected to Driftline real-time features",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"connected": client.connected,
	})

	s.hub.Broadcast(ChannelNotifications, map[string]any{
		"type":             "user_connected",
		"message":          "New user connected to real-time features",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"connectedClients": s.hub.ClientCount(),
	})
}

// readPump reads messages from the WebSocket connection.
// When the connection drops it unregisters the client and announces
// the disconnect.
func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		c.hub.Broadcast(ChannelNotifications, map[string]any{
			"type":             "user_disconnected",
			"message":          "User disconnected from real-time features",
			"timestamp":        time.Now().UTC().Format(time.RFC3339),
			"connectedClients": c.hub.ClientCount(),
		})
	}()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Any client message resets the read deadline (keeps connection
		// alive even if the client doesn't answer protocol-level pings).
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming WebSocket message.
func (c *WSClient) handleMessage(data []byte) {
	var msg wsInbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("Invalid JSON message format")
		return
	}

	switch msg.Type {
	case WSTypeAuthenticate:
		c.handleAuthenticate(msg)
	case WSTypeChatMessage:
		c.handleChatMessage(msg)
	case WSTypePing:
		c.sendMessage(map[string]any{
			"type":      "pong",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	default:
		c.sendError("Unknown message type")
	}
}

// handleAuthenticate verifies the presented access token and promotes
// the connection. A failed attempt leaves the connection open and
// unauthenticated.
func (c *WSClient) handleAuthenticate(msg wsInbound) {
	claims, err := auth.ParseAccessToken(msg.Token, c.jwtSecret)
	if err != nil {
		c.sendMessage(map[string]any{
			"type":    "authentication_error",
			"message": "Invalid authentication token",
		})
		return
	}

	c.mu.Lock()
	c.authenticated = true
	c.userID = claims.UserID
	c.username = claims.Email
	c.subscriptions[UserChannel(claims.UserID)] = struct{}{}
	c.subscriptions[ChannelChat] = struct{}{}
	c.mu.Unlock()

	c.hub.logger.Info("websocket client authenticated", "user_id", claims.UserID)

	c.sendMessage(map[string]any{
		"type":    "authenticated",
		"message": "WebSocket connection authenticated",
		"user": map[string]any{
			"id":    claims.UserID,
			"email": claims.Email,
		},
	})

	c.hub.Broadcast(ChannelNotifications, map[string]any{
		"type":      "user_authenticated",
		"message":   fmt.Sprintf("User %s authenticated", claims.Email),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleChatMessage publishes a chat message to the global chat channel.
// Unauthenticated connections get an error and nothing is delivered.
func (c *WSClient) handleChatMessage(msg wsInbound) {
	c.mu.RLock()
	authenticated := c.authenticated
	userID := c.userID
	username := c.username
	c.mu.RUnlock()

	if !authenticated || msg.Message == "" {
		c.sendError("Authentication required to send messages")
		return
	}

	c.hub.Broadcast(ChannelChat, map[string]any{
		"type":      "chat_message",
		"id":        c.hub.NextChatID(),
		"userId":    userID,
		"username":  username,
		"message":   msg.Message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// subscribe adds a channel to this client's subscription set.
func (c *WSClient) subscribe(channel string) {
	c.mu.Lock()
	c.subscriptions[channel] = struct{}{}
	c.mu.Unlock()
}

// isSubscribed checks if the client is subscribed to a channel.
func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// trySend attempts to send data to the client's send channel.
// It silently handles closed channels (client disconnected during
// broadcast) and full buffers (slow client).
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}

// sendMessage marshals and sends a message directly to this client.
// Routes through trySend to safely handle closed channels during shutdown.
func (c *WSClient) sendMessage(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

// sendError sends an error message to the client.
func (c *WSClient) sendError(message string) {
	c.sendMessage(map[string]any{
		"type":    "error",
		"message": message,
	})
}
