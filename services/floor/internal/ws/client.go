package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/appetiteclub/floor/services/floor/internal/floor"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Terminals run on the restaurant network; the service sits behind
	// the internal-only middleware.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a single terminal connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	tableID string
	send    chan []byte
}

func (c *Client) wants(e Event) bool {
	return c.tableID == "" || e.TableID == "" || e.TableID == c.tableID
}

// ReadPump only watches for disconnects; terminals never send commands over
// the socket.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Info("websocket closed unexpectedly", "error", err)
			}
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Handler serves the websocket feed.
type Handler struct {
	hub    *Hub
	logger apt.Logger
}

func NewHandler(hub *Hub, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{hub: hub, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.ServeWS)
}

// ServeWS upgrades the request. The optional table query parameter limits
// the feed to one table.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tableID := strings.TrimSpace(r.URL.Query().Get("table"))
	if tableID != "" {
		tableID = floor.NormalizeTableID(tableID)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Info("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		tableID: tableID,
		send:    make(chan []byte, 256),
	}
	if !client.hub.add(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
