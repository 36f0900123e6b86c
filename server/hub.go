package server

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

type commandKind int

const (
	cmdConnect commandKind = iota
	cmdMessage
	cmdDisconnect
	cmdDo
)

// command 连接协程提交给 Hub 循环的事件
type command struct {
	kind commandKind
	conn Conn
	msg  *Message
	fn   func()
	done chan struct{}
}

// Hub 持有注册表与所有会话，单个循环串行处理连接事件与 Tick
type Hub struct {
	rooms    *RoomManager
	sessions map[string]*Session
	commands chan command
	stopped  chan struct{}

	tickInterval time.Duration
	metrics      *Metrics
}

// NewHubOptions 创建 Hub 的参数
type NewHubOptions struct {
	Rooms         *RoomManager
	Metrics       *Metrics
	TickRate      int
	CommandBuffer int
}

func NewHub(opts NewHubOptions) *Hub {
	if opts.Rooms == nil {
		opts.Rooms = NewRoomManager(nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = &Metrics{}
	}
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.CommandBuffer <= 0 {
		opts.CommandBuffer = 1024
	}
	return &Hub{
		rooms:        opts.Rooms,
		sessions:     make(map[string]*Session),
		commands:     make(chan command, opts.CommandBuffer),
		stopped:      make(chan struct{}),
		tickInterval: time.Second / time.Duration(opts.TickRate),
		metrics:      opts.Metrics,
	}
}

// Run 启动循环，直到 ctx 取消（返回 nil）或出现 panic（返回 ErrSimulationFault）
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.stopped)

	ticker := time.NewTicker(h.tickInterval)
	defer ticker.Stop()

	Log.Infof("hub started: tick=%s", h.tickInterval)
	for {
		select {
		case <-ctx.Done():
			Log.Info("hub stopped")
			return nil
		case cmd := <-h.commands:
			if err := h.guard("command", func() { h.dispatch(cmd) }); err != nil {
				return err
			}
		case <-ticker.C:
			if err := h.guard("tick", h.tick); err != nil {
				return err
			}
		}
	}
}

// Done 在 Run 返回后关闭
func (h *Hub) Done() <-chan struct{} { return h.stopped }

// Connect 登记新连接（未绑定状态）
func (h *Hub) Connect(conn Conn) bool {
	return h.submit(command{kind: cmdConnect, conn: conn})
}

// Submit 提交一条客户端消息
func (h *Hub) Submit(conn Conn, msg *Message) bool {
	return h.submit(command{kind: cmdMessage, conn: conn, msg: msg})
}

// Disconnect 传输层断开通知
func (h *Hub) Disconnect(conn Conn) bool {
	return h.submit(command{kind: cmdDisconnect, conn: conn})
}

// Do 在循环内执行 fn 并等待完成，用于只读查询
func (h *Hub) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !h.submit(command{kind: cmdDo, fn: fn, done: done}) {
		return ErrHubStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopped:
		return ErrHubStopped
	}
}

// Drain 关服时调用（必须在 Run 返回之后）：广播 serverShutdown 并关闭所有连接，
// 等待各连接发完剩余消息；ctx 到期后强制断开仍未结束的连接
func (h *Hub) Drain(ctx context.Context) int {
	n := len(h.sessions)
	conns := make([]Conn, 0, n)
	if b, err := Encode(EventServerShutdown, nil); err == nil {
		for _, s := range h.sessions {
			s.conn.Enqueue(b)
		}
	}
	for id, s := range h.sessions {
		s.close()
		s.conn.Close()
		conns = append(conns, s.conn)
		delete(h.sessions, id)
	}
	h.rooms.Clear()

	forced := 0
	for _, c := range conns {
		select {
		case <-c.Done():
		case <-ctx.Done():
			c.Terminate()
			forced++
		}
	}
	Log.Infof("hub drained: sessions=%d forced=%d", n, forced)
	return n
}

func (h *Hub) submit(cmd command) bool {
	select {
	case <-h.stopped:
		return false
	default:
	}
	select {
	case h.commands <- cmd:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) dispatch(cmd command) {
	switch cmd.kind {
	case cmdConnect:
		h.sessions[cmd.conn.ID()] = newSession(cmd.conn)
		Log.Debugf("connected: conn=%s", cmd.conn.ID())
	case cmdMessage:
		s, ok := h.sessions[cmd.conn.ID()]
		if !ok {
			Log.Debugf("message from unknown conn=%s ignored", cmd.conn.ID())
			return
		}
		h.handleMessage(s, cmd.msg)
	case cmdDisconnect:
		s, ok := h.sessions[cmd.conn.ID()]
		if !ok {
			return
		}
		delete(h.sessions, cmd.conn.ID())
		h.handleDisconnect(s)
	case cmdDo:
		defer close(cmd.done)
		cmd.fn()
	}
}

// guard 将循环内的 panic 转为错误，交给关服流程处理
func (h *Hub) guard(stage string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			Log.Errorf("panic during %s: %v\n%s", stage, r, debug.Stack())
			err = fmt.Errorf("%w: %s: %v", ErrSimulationFault, stage, r)
		}
	}()
	fn()
	return nil
}

// send 发送给单个连接
func (h *Hub) send(conn Conn, eventType string, payload any) {
	b, err := Encode(eventType, payload)
	if err != nil {
		Log.Errorf("encode %s: %v", eventType, err)
		return
	}
	conn.Enqueue(b)
}

// broadcast 发送给房间内所有连接
func (h *Hub) broadcast(r *Room, eventType string, payload any) {
	b, err := Encode(eventType, payload)
	if err != nil {
		Log.Errorf("encode %s: %v", eventType, err)
		return
	}
	r.Broadcast(b)
}
