package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"portfolio_cms/internal/domain/models"
	"portfolio_cms/internal/lib/logger/sl"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage is what subscribers send: subscribe or unsubscribe for one
// collection. Everything flowing the other way is a full snapshot.
type ClientMessage struct {
	Action     string `json:"action"`
	Collection string `json:"collection"`
}

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	audience Audience

	// owned by the hub goroutine
	subscriptions map[models.Collection]struct{}
}

// ServeWS upgrades the request and runs the client pumps. The registration
// is released on every exit path: read errors, write errors and hub
// shutdown all funnel into unregister.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, audience Audience) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		audience:      audience,
		subscriptions: make(map[models.Collection]struct{}),
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()

	return nil
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.log.Warn("bad subscriber message", sl.Err(err))
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg ClientMessage) {
	collection, err := models.ParseCollection(msg.Collection)
	if err != nil {
		c.hub.log.Warn("subscribe to unknown collection",
			slog.String("collection", msg.Collection))
		return
	}

	switch msg.Action {
	case "subscribe":
		c.hub.subscribe <- subscriptionOp{client: c, collection: collection, subscribe: true}
	case "unsubscribe":
		c.hub.subscribe <- subscriptionOp{client: c, collection: collection, subscribe: false}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub dropped us
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
