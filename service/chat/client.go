package chat

import (
	"sync"
	"time"

	"HelloChat/logger"
	errs "HelloChat/tools/errs"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 25 * time.Second
)

// Client is one physical socket. The write side is single-owner: only the
// WritePump goroutine touches the connection for writes, everyone else
// enqueues frames, so broadcasts from different tasks never interleave
// mid-frame.
type Client struct {
	ConnID string
	UserID int64

	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}

	mu        sync.Mutex
	closeCode int
	closeText string
}

func NewClient(connID string, userID int64, ws *websocket.Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Client{
		ConnID: connID,
		UserID: userID,
		ws:     ws,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue hands a frame to the writer. A full queue means a slow client;
// the frame is dropped and reported rather than blocking the caller.
func (c *Client) Enqueue(payload []byte) error {
	select {
	case <-c.done:
		return errs.New("connection closed")
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errs.New("send queue full")
	}
}

// CloseWith signals the writer to perform the close handshake with the
// given code. Safe to call multiple times; the first caller wins.
func (c *Client) CloseWith(code int, reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeCode = code
		c.closeText = reason
		c.mu.Unlock()
		close(c.done)
	})
}

// Done is closed once the client has been told to shut down.
func (c *Client) Done() <-chan struct{} { return c.done }

// WritePump owns the write side of the socket: outbound frames, periodic
// pings, and the final close frame. Run it in its own goroutine; it exits
// when CloseWith is called or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.mu.Lock()
		code, text := c.closeCode, c.closeText
		c.mu.Unlock()
		if code == 0 {
			code = websocket.CloseNormalClosure
		}
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
		_ = c.ws.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[ws] write err conn=%s user=%d err=%v", c.ConnID, c.UserID, err)
				c.CloseWith(websocket.CloseAbnormalClosure, "write failure")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Infof("[ws] ping err conn=%s user=%d err=%v", c.ConnID, c.UserID, err)
				c.CloseWith(websocket.CloseAbnormalClosure, "ping failure")
				return
			}
		case <-c.done:
			// Drain whatever was enqueued before the close signal.
			for {
				select {
				case payload := <-c.send:
					_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}
