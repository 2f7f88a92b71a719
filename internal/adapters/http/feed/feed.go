// Package feed pushes live scoreboard views to browsers over WebSocket.
package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	service "github.com/okian/reto/internal/app"
	"github.com/okian/reto/pkg/logger"
	"github.com/okian/reto/pkg/metrics"
)

// Connection timing.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Source is the read model the feed follows.
type Source interface {
	Subscribe() (<-chan struct{}, func())
	Session(id string) *service.Session
}

// Handler upgrades requests and streams views until the client leaves.
type Handler struct {
	src       Source
	sessionID func(*http.Request) string
	upgrader  websocket.Upgrader
	ping      time.Duration
	logger    logger.Logger
}

// New creates a feed handler. sessionID extracts the caller's session from a request.
func New(src Source, sessionID func(*http.Request) string, opts ...Option) *Handler {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Handler{
		src:       src,
		sessionID: sessionID,
		upgrader: websocket.Upgrader{
			CheckOrigin: cfg.checkOrigin,
		},
		ping:   cfg.ping,
		logger: cfg.logger,
	}
}

// ServeHTTP implements http.Handler. ?date= picks the day shown in the day status.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	c := &client{
		conn:   conn,
		viewer: h.src.Session(h.sessionID(r)),
		date:   r.URL.Query().Get("date"),
		ping:   h.ping,
		done:   make(chan struct{}),
		logger: h.logger,
	}
	changes, cancel := h.src.Subscribe()

	metrics.AddFeedClients(1)
	h.logger.Debug(r.Context(), "feed client connected", logger.String("remote", conn.RemoteAddr().String()))

	go c.readPump()
	go func() {
		defer func() {
			cancel()
			metrics.AddFeedClients(-1)
		}()
		c.writePump(context.WithoutCancel(r.Context()), changes)
	}()
}

type client struct {
	conn   *websocket.Conn
	viewer *service.Session
	date   string
	ping   time.Duration
	done   chan struct{}
	logger logger.Logger
}

// readPump drains client frames so pongs are seen, and ends the client on error.
func (c *client) readPump() {
	defer close(c.done)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends the current view, then a fresh one after every change,
// with pings in between.
func (c *client) writePump(ctx context.Context, changes <-chan struct{}) {
	ticker := time.NewTicker(c.ping)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	if err := c.push(); err != nil {
		c.logger.Debug(ctx, "feed write failed", logger.Error(err))
		return
	}
	for {
		select {
		case <-c.done:
			return
		case _, ok := <-changes:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := c.push(); err != nil {
				c.logger.Debug(ctx, "feed write failed", logger.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug(ctx, "feed ping failed", logger.Error(err))
				return
			}
		}
	}
}

func (c *client) push() error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(c.viewer.View(c.date))
}
