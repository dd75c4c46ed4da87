package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Prannn182/CodeCollab/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 256 * 1024
)

// Registry is the hub-side surface a connection needs: presence registration
// plus the dispatch loop all inbound traffic is serialized through.
type Registry interface {
	Register(conn domain.Connection)
	Unregister(conn domain.Connection)
	Dispatch(fn func())
}

type Conn struct {
	id       string
	ws       *websocket.Conn
	send     chan []byte
	registry Registry
	handler  domain.MessageHandler
}

func NewConn(id string, ws *websocket.Conn, registry Registry, handler domain.MessageHandler) *Conn {
	return &Conn{
		id:       id,
		ws:       ws,
		send:     make(chan []byte, 256),
		registry: registry,
		handler:  handler,
	}
}

func (c *Conn) ID() string { return c.id }

// Send frames the event into an envelope and queues it for the write pump.
// A full queue drops the connection's packet rather than blocking fan-out.
func (c *Conn) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(domain.Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return websocket.ErrCloseSent
	}
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) Start() {
	c.registry.Dispatch(func() {
		c.registry.Register(c)
		c.handler.HandleConnect(c)
	})
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.registry.Dispatch(func() {
			c.handler.HandleDisconnect(c)
			c.registry.Unregister(c)
		})
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("read error", "clientId", c.id, "error", err)
			}
			return
		}

		c.registry.Dispatch(func() {
			c.handler.HandleMessage(c, data)
		})
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
