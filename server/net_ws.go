package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	readLimit  = 4096
)

// Conn 传输层对核心暴露的最小接口：单连接发送与关闭
type Conn interface {
	ID() string
	// Enqueue 非阻塞发送一帧，队列满时丢弃
	Enqueue(b []byte)
	// Close 发完已排队的消息后断开
	Close()
	// Done 在连接真正断开（写协程退出）后关闭
	Done() <-chan struct{}
	// Terminate 立即断开，丢弃未发送的消息
	Terminate()
}

// ClientConn 基于 gorilla/websocket 的连接，写操作由独立协程完成
type ClientConn struct {
	id       string
	ws       *websocket.Conn
	send     chan []byte
	done     chan struct{}
	finished chan struct{}
	once     sync.Once
	metrics  *Metrics
}

func NewClientConn(ws *websocket.Conn, sendBuffer int, metrics *Metrics) *ClientConn {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &ClientConn{
		id:      uuid.NewString(),
		ws:      ws,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		metrics:  metrics,
	}
}

func (c *ClientConn) ID() string { return c.id }

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃，防止阻塞 Tick）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- b:
	default:
		if c.metrics != nil {
			c.metrics.IncFramesDropped()
		}
	}
}

// Close 通知写协程发完剩余消息后关闭连接，可重复调用
func (c *ClientConn) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *ClientConn) Done() <-chan struct{} { return c.finished }

// Terminate 强制关闭底层连接，写协程随之退出
func (c *ClientConn) Terminate() {
	c.Close()
	if c.ws != nil {
		_ = c.ws.Close()
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		close(c.finished)
	}()
	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				Log.Debugf("write conn=%s: %v", c.id, err)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"))
			return
		}
	}
}

// flush 关闭前尽量写出已排队的消息（如 serverShutdown）
func (c *ClientConn) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *ClientConn) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

// readPump 读取客户端消息提交给 Hub；退出即视为断开
func (c *ClientConn) readPump(hub *Hub) {
	defer func() {
		hub.Disconnect(c)
		c.Close()
	}()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Warnf("read conn=%s: %v", c.id, err)
			}
			return
		}
		msg, err := ParseMessage(payload)
		if err != nil {
			// 格式错误的帧直接丢弃，不断开连接
			Log.Debugf("conn=%s: %v", c.id, err)
			if c.metrics != nil {
				c.metrics.IncMalformedFrame()
			}
			continue
		}
		if !hub.Submit(c, msg) {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 客户端页面可能由其他域名托管
		return true
	},
}

// ServeWS WebSocket 接入：每个连接先以未绑定状态登记到 Hub
func ServeWS(hub *Hub, sendBuffer int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Log.Warnf("upgrade error: %v", err)
			return
		}

		client := NewClientConn(ws, sendBuffer, hub.metrics)
		if !hub.Connect(client) {
			_ = ws.Close()
			return
		}
		Log.Debugf("websocket connected: conn=%s remote=%s", client.id, ws.RemoteAddr())

		go client.writePump()
		go client.readPump(hub)
	}
}
