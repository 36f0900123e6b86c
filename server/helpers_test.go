package server

import (
	"encoding/json"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// fakeConn 记录所有出站帧
type fakeConn struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	closed bool

	// stuck 模拟写不出去的连接：Close 后 Done 不会关闭，只能 Terminate
	stuck      bool
	terminated bool
	done       chan struct{}
	once       sync.Once
}

var connSeq int

func newFakeConn() *fakeConn {
	connSeq++
	return &fakeConn{id: "conn-" + strconv.Itoa(connSeq), done: make(chan struct{})}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Enqueue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, b)
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if !c.stuck {
		c.once.Do(func() { close(c.done) })
	}
}

func (c *fakeConn) Done() <-chan struct{} { return c.done }

func (c *fakeConn) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.terminated = true
	c.once.Do(func() { close(c.done) })
}

func (c *fakeConn) isTerminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminated
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) messages(t *testing.T) []Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, 0, len(c.frames))
	for _, b := range c.frames {
		var m Message
		require.NoError(t, json.Unmarshal(b, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, m := range c.messages(t) {
		out = append(out, m.Type)
	}
	return out
}

func (c *fakeConn) count(t *testing.T, eventType string) int {
	t.Helper()
	n := 0
	for _, m := range c.messages(t) {
		if m.Type == eventType {
			n++
		}
	}
	return n
}

// last 返回最后一条指定类型的消息并解码载荷
func (c *fakeConn) last(t *testing.T, eventType string, v any) {
	t.Helper()
	msgs := c.messages(t)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == eventType {
			if v != nil {
				require.NoError(t, msgs[i].DecodePayload(v))
			}
			return
		}
	}
	t.Fatalf("no %s message in %v", eventType, c.types(t))
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// useTestLogger 仅用于同步测试：日志写入 t.Log
func useTestLogger(t *testing.T) {
	SetLogger(zaptest.NewLogger(t))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })
}

func mustMessage(t *testing.T, eventType string, payload any) *Message {
	t.Helper()
	b, err := Encode(eventType, payload)
	require.NoError(t, err)
	m, err := ParseMessage(b)
	require.NoError(t, err)
	return m
}

// testHub 不启动循环，直接调用 dispatch/tick 驱动
func testHub(t *testing.T) *Hub {
	t.Helper()
	useTestLogger(t)
	return NewHub(NewHubOptions{})
}

func (h *Hub) connect(c Conn) {
	h.dispatch(command{kind: cmdConnect, conn: c})
}

func (h *Hub) message(t *testing.T, c Conn, eventType string, payload any) {
	t.Helper()
	h.dispatch(command{kind: cmdMessage, conn: c, msg: mustMessage(t, eventType, payload)})
}

func (h *Hub) disconnect(c Conn) {
	h.dispatch(command{kind: cmdDisconnect, conn: c})
}
