package server

import "time"

const (
	// DefaultTickRate 世界推进频率（60 TPS）
	DefaultTickRate = 60
)

// tick 推进所有运行中的房间并广播快照；空闲房间直接跳过
func (h *Hub) tick() {
	start := time.Now()
	for _, r := range h.rooms.rooms {
		if !r.Running() || r.PlayerCount() == 0 {
			continue
		}
		// 核心循环：更新玩家 → 广播状态 → 判定结束
		ended := r.Step()
		h.broadcast(r, EventGameState, GameState{Players: r.Snapshot()})
		h.metrics.IncSnapshots()
		if ended {
			winner, _ := r.Over()
			Log.Infof("game over: room=%s winner=%s", r.Code, winner)
			h.broadcast(r, EventGameOver, GameOver{Winner: winner})
		}
	}
	h.metrics.AddTick(time.Since(start).Nanoseconds())
}
