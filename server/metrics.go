package server

import (
	"sync/atomic"
)

// Metrics 服务运行期的关键指标（HTTP 协程读取，故使用原子操作）
type Metrics struct {
	TickCount      int64 // Tick 次数
	TotalTickNs    int64 // Tick 累计耗时（纳秒）
	SnapshotsSent  int64 // 已广播的 gameState 帧数
	InputsApplied  int64 // 生效的输入数
	InputsIgnored  int64 // 未绑定或房间未运行时被忽略的输入数
	RoomsCreated   int64
	RoomsRemoved   int64
	FramesDropped  int64 // 因发送队列满被丢弃的出站帧
	MalformedFrame int64 // 无法解析的入站帧
}

func (m *Metrics) IncSnapshots()      { atomic.AddInt64(&m.SnapshotsSent, 1) }
func (m *Metrics) IncInputsApplied()  { atomic.AddInt64(&m.InputsApplied, 1) }
func (m *Metrics) IncInputsIgnored()  { atomic.AddInt64(&m.InputsIgnored, 1) }
func (m *Metrics) IncRoomsCreated()   { atomic.AddInt64(&m.RoomsCreated, 1) }
func (m *Metrics) IncRoomsRemoved()   { atomic.AddInt64(&m.RoomsRemoved, 1) }
func (m *Metrics) IncFramesDropped()  { atomic.AddInt64(&m.FramesDropped, 1) }
func (m *Metrics) IncMalformedFrame() { atomic.AddInt64(&m.MalformedFrame, 1) }
func (m *Metrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":      tick,
		"avg_tick_ms":     avgMs,
		"snapshots_sent":  atomic.LoadInt64(&m.SnapshotsSent),
		"inputs_applied":  atomic.LoadInt64(&m.InputsApplied),
		"inputs_ignored":  atomic.LoadInt64(&m.InputsIgnored),
		"rooms_created":   atomic.LoadInt64(&m.RoomsCreated),
		"rooms_removed":   atomic.LoadInt64(&m.RoomsRemoved),
		"frames_dropped":  atomic.LoadInt64(&m.FramesDropped),
		"malformed_frame": atomic.LoadInt64(&m.MalformedFrame),
	}
}
