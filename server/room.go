package server

import (
	"time"
)

// Room 对战房间：最多两名玩家，状态只由 Hub 的单一循环修改
type Room struct {
	Code      string
	CreatedAt time.Time

	players map[PlayerID]*Player
	running bool

	// 对局结束后记录胜者，直到 Restart
	over   bool
	winner PlayerID
}

// NewRoom 创建空房间
func NewRoom(code string) *Room {
	return &Room{
		Code:      code,
		CreatedAt: time.Now(),
		players:   make(map[PlayerID]*Player, MaxPlayers),
	}
}

// AddPlayer 按 player1、player2 的顺序分配空闲槽位；满员时返回 ErrRoomFull
func (r *Room) AddPlayer(conn Conn) (*Player, error) {
	for _, id := range slotOrder {
		if _, taken := r.players[id]; taken {
			continue
		}
		p := newPlayer(id, r, conn)
		r.players[id] = p
		// 至少一名玩家即可运行（支持单人练习）；已结束的对局需 Restart
		if !r.over {
			r.running = true
		}
		return p, nil
	}
	return nil, ErrRoomFull
}

// RemovePlayer 移除槽位，返回房间是否已空
func (r *Room) RemovePlayer(id PlayerID) bool {
	delete(r.players, id)
	if len(r.players) == 0 {
		r.running = false
		return true
	}
	return false
}

// PlayerCount 当前玩家数
func (r *Room) PlayerCount() int { return len(r.players) }

// IsFull 是否达到容量
func (r *Room) IsFull() bool { return len(r.players) >= MaxPlayers }

// Running 是否在推进物理
func (r *Room) Running() bool { return r.running }

// Over 对局是否已分出胜负，以及胜者
func (r *Room) Over() (PlayerID, bool) { return r.winner, r.over }

// Player 按槽位取玩家
func (r *Room) Player(id PlayerID) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Restart 所有玩家回到出生点并恢复运行，槽位不变
func (r *Room) Restart() {
	for _, p := range r.players {
		p.Spawn()
	}
	r.over = false
	r.winner = ""
	r.running = true
}

// Step 推进一帧；本帧决出胜负时返回 true
func (r *Room) Step() bool {
	if !r.running || r.over {
		return false
	}
	for _, p := range r.orderedPlayers() {
		p.Update()
		if r.over {
			return true
		}
	}
	return false
}

// Snapshot 所有玩家的公开状态
func (r *Room) Snapshot() map[PlayerID]PlayerState {
	out := make(map[PlayerID]PlayerState, len(r.players))
	for id, p := range r.players {
		out[id] = p.State()
	}
	return out
}

// Broadcast 向房间内所有连接发送同一帧（非阻塞）
func (r *Room) Broadcast(b []byte) {
	for _, p := range r.players {
		if p.Conn != nil {
			p.Conn.Enqueue(b)
		}
	}
}

// finish 进入结束态，物理停止推进直到 Restart
func (r *Room) finish(winner PlayerID) {
	r.over = true
	r.winner = winner
	r.running = false
}

// orderedPlayers 按槽位顺序返回玩家，保证同一帧内更新顺序确定
func (r *Room) orderedPlayers() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, id := range slotOrder {
		if p, ok := r.players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
