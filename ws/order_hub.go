package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"smartorder/events"
	"smartorder/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// OrderHub pushes order events to connected kitchen and admin boards.
type OrderHub struct {
	clients    map[*client]bool
	broadcast  chan events.Event
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logrus.Logger
	upgrader   websocket.Upgrader
}

type client struct {
	conn   *websocket.Conn
	send   chan events.Event
	userID uint
}

func NewOrderHub(logger *logrus.Logger) *OrderHub {
	return &OrderHub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan events.Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run serves register/unregister/broadcast until ctx is done.
func (h *OrderHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.WithFields(logrus.Fields{"user_id": c.userID, "clients": n}).Info("order board connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case e := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- e:
				default:
					// slow reader
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event for every connected board. A full queue drops the event.
func (h *OrderHub) Publish(_ context.Context, e events.Event) error {
	select {
	case h.broadcast <- e:
	default:
		h.logger.WithField("type", e.Type).Warn("order hub queue full, dropping event")
	}
	return nil
}

func (h *OrderHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades GET /ws/orders. WSAuthMiddleware runs first.
func (h *OrderHub) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("ws upgrade failed")
		return
	}

	cl := &client{conn: conn, send: make(chan events.Event, sendBuffer), userID: utils.CurrentUserID(c)}
	select {
	case h.register <- cl:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(cl)
	go h.readPump(cl)
}

// readPump only drains control frames; boards never send data.
func (h *OrderHub) readPump(cl *client) {
	defer func() {
		select {
		case h.unregister <- cl:
		case <-h.done:
		}
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(512)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).Warn("ws read error")
			}
			return
		}
	}
}

func (h *OrderHub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case e, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(e); err != nil {
				h.logger.WithError(err).Warn("ws write error")
				return
			}

		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
