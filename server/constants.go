package server

// 物理与战斗参数（按 60 帧/秒调校，单位为像素/帧）
const (
	Gravity      = 0.8
	JumpStrength = -15.0
	MoveSpeed    = 5.0
	GroundY      = 500.0

	AttackRange         = 80.0
	AttackDamage        = 10
	AttackCooldownTicks = 30
	Knockback           = 20.0
	MaxHealth           = 100

	MinX = 50.0
	MaxX = 1150.0

	SpawnLeftX  = 200.0
	SpawnRightX = 1000.0

	// MaxPlayers 每个房间的容量
	MaxPlayers = 2
)

// 邀请码范围：四位数字
const (
	roomCodeMin = 1000
	roomCodeMax = 9999
)
