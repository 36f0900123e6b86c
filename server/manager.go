package server

import (
	"math/rand"
	"sort"
	"strconv"
	"time"
)

// RoomManager 邀请码到房间的注册表，由 Hub 独占，不加锁
type RoomManager struct {
	rooms map[string]*Room
	rng   *rand.Rand
}

// NewRoomManager 创建注册表；rng 为 nil 时使用时间种子
func NewRoomManager(rng *rand.Rand) *RoomManager {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RoomManager{
		rooms: make(map[string]*Room),
		rng:   rng,
	}
}

// CreateRoom 生成未被占用的四位邀请码并注册空房间
func (m *RoomManager) CreateRoom() *Room {
	code := m.generateCode()
	for {
		if _, exists := m.rooms[code]; !exists {
			break
		}
		code = m.generateCode()
	}
	r := NewRoom(code)
	m.rooms[code] = r
	return r
}

// GetRoom 按邀请码查找房间
func (m *RoomManager) GetRoom(code string) (*Room, bool) {
	r, ok := m.rooms[code]
	return r, ok
}

// RemoveIfEmpty 房间无人时删除，返回是否删除
func (m *RoomManager) RemoveIfEmpty(code string) bool {
	r, ok := m.rooms[code]
	if !ok || r.PlayerCount() > 0 {
		return false
	}
	delete(m.rooms, code)
	return true
}

// Len 当前房间数
func (m *RoomManager) Len() int { return len(m.rooms) }

// Rooms 按邀请码排序返回所有房间
func (m *RoomManager) Rooms() []*Room {
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Clear 关服时清空注册表
func (m *RoomManager) Clear() {
	for code := range m.rooms {
		delete(m.rooms, code)
	}
}

func (m *RoomManager) generateCode() string {
	return strconv.Itoa(roomCodeMin + m.rng.Intn(roomCodeMax-roomCodeMin+1))
}
