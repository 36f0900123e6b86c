package server

import "errors"

var (
	// ErrRoomFull 房间已满（容量错误），不改变任何状态
	ErrRoomFull = errors.New("room full")
	// ErrRoomNotFound 邀请码无对应房间（查找错误）
	ErrRoomNotFound = errors.New("room not found")
	// ErrSimulationFault Tick 或指令处理中出现未预期的 panic
	ErrSimulationFault = errors.New("simulation fault")
	// ErrHubStopped Hub 循环已退出，无法再提交指令
	ErrHubStopped = errors.New("hub is stopped")
)
