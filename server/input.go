package server

import (
	"encoding/json"
	"fmt"
)

// 入站事件类型
const (
	EventCreateRoom = "createRoom"
	EventJoinRoom   = "joinRoom"
	EventInput      = "input"
	EventRestart    = "restart"
)

// Message 双向通用的 JSON 信封
// 示例：{"type":"input","payload":{"action":"left","pressed":true}}
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinRoomRequest joinRoom 的载荷
type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

// InputRequest input 的载荷：某个按键被按下或松开
type InputRequest struct {
	Action  Action `json:"action"`
	Pressed bool   `json:"pressed"`
}

// ParseMessage 解析客户端文本帧
func ParseMessage(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("decode message: missing type")
	}
	return &m, nil
}

// DecodePayload 将载荷解码到 v；空载荷视为零值
func (m *Message) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}
