package handlers

import (
	"net/http"
	"time"

	"atendo/internal/auth"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	wsPingInterval  = 20 * time.Second
	wsReadDeadline  = 30 * time.Second
	wsWriteDeadline = 10 * time.Second
)

// WebSocketMessage is the wire envelope for pushed lifecycle events
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	TenantID  string      `json:"tenant_id,omitempty"`
}

// WebSocketClient is one connected agent session
type WebSocketClient struct {
	conn     *websocket.Conn
	tenantID string
	send     chan WebSocketMessage
	hub      *WebSocketHub
}

// WebSocketHub fans committed lifecycle events out to the connected
// clients of each tenant. The clients map is owned exclusively by the
// run goroutine; everything else talks to it through channels.
type WebSocketHub struct {
	clients    map[*WebSocketClient]bool
	broadcast  chan WebSocketMessage
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	done       chan struct{}
}

// WebSocketHandler upgrades connections and owns the hub lifecycle
type WebSocketHandler struct {
	hub         *WebSocketHub
	authService *auth.Service
}

// NewWebSocketHandler creates the hub and starts its run loop
func NewWebSocketHandler(authService *auth.Service) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan WebSocketMessage),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		done:       make(chan struct{}),
	}

	go hub.run()
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the tenant's configured origins
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleWebSocket authenticates and upgrades a client connection. The
// browser websocket API cannot set headers, so the access token arrives
// as a query parameter when the JWT middleware did not run.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	var tenantID string

	if tid, ok := c.Get("tenant_id").(string); ok {
		tenantID = tid
	} else {
		token := c.QueryParam("token")
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
		}

		claims, err := h.authService.ValidateToken(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token: "+err.Error())
		}

		if claims.TenantID != nil {
			tenantID = claims.TenantID.String()
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := &WebSocketClient{
		conn:     conn,
		tenantID: tenantID,
		send:     make(chan WebSocketMessage, 256),
		hub:      h.hub,
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// BroadcastToTenant pushes an event to every client of the tenant.
// Messages sent after shutdown are dropped.
func (h *WebSocketHandler) BroadcastToTenant(tenantID string, messageType string, data interface{}) {
	message := WebSocketMessage{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now(),
		TenantID:  tenantID,
	}

	select {
	case h.hub.broadcast <- message:
	case <-h.hub.done:
	}
}

// Shutdown stops the hub's run loop and disconnects every client
func (h *WebSocketHandler) Shutdown() {
	close(h.hub.done)
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case <-hub.done:
			for client := range hub.clients {
				close(client.send)
				delete(hub.clients, client)
			}
			return

		case client := <-hub.register:
			hub.clients[client] = true
			log.Debug().Str("tenant_id", client.tenantID).Msg("WebSocket client connected")

		case client := <-hub.unregister:
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				close(client.send)
				log.Debug().Str("tenant_id", client.tenantID).Msg("WebSocket client disconnected")
			}

		case message := <-hub.broadcast:
			for client := range hub.clients {
				if message.TenantID != "" && client.tenantID != message.TenantID {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop the connection.
					close(client.send)
					delete(hub.clients, client)
				}
			}
		}
	}
}

// readPump drains the connection so protocol-level pong frames refresh
// the read deadline. Client payloads are ignored; the socket is
// push-only.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}
	}
}

// writePump writes queued events and keeps the connection alive with
// protocol pings. A closed send channel ends the connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				log.Warn().Err(err).Msg("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
