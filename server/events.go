package server

import (
	"encoding/json"
	"fmt"
)

// 出站事件类型
const (
	EventRoomCreated    = "roomCreated"
	EventRoomJoined     = "roomJoined"
	EventPlayerJoined   = "playerJoined"
	EventPlayerLeft     = "playerLeft"
	EventRoomFull       = "roomFull"
	EventRoomNotFound   = "roomNotFound"
	EventGameStart      = "gameStart"
	EventGameState      = "gameState"
	EventGameOver       = "gameOver"
	EventServerShutdown = "serverShutdown"
)

// RoomInfo roomCreated / roomJoined 的载荷
type RoomInfo struct {
	RoomCode    string   `json:"roomCode"`
	PlayerID    PlayerID `json:"playerId"`
	PlayerCount int      `json:"playerCount"`
	MaxPlayers  int      `json:"maxPlayers"`
}

// PlayerPresence playerJoined / playerLeft 的载荷
type PlayerPresence struct {
	PlayerID    PlayerID `json:"playerId"`
	PlayerCount int      `json:"playerCount"`
	MaxPlayers  int      `json:"maxPlayers"`
}

// GameState 每帧广播的快照
type GameState struct {
	Players map[PlayerID]PlayerState `json:"players"`
}

// GameOver 对局结果
type GameOver struct {
	Winner PlayerID `json:"winner"`
}

// Encode 编码为一帧；payload 为 nil 时省略载荷字段
func Encode(eventType string, payload any) ([]byte, error) {
	m := Message{Type: eventType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
		}
		m.Payload = raw
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", eventType, err)
	}
	return b, nil
}
