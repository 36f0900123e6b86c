package server

// PlayerID 玩家槽位标识，同时作为区分对手的键
type PlayerID string

const (
	Player1 PlayerID = "player1"
	Player2 PlayerID = "player2"
)

// slotOrder 槽位按加入顺序分配
var slotOrder = [MaxPlayers]PlayerID{Player1, Player2}

// Facing 朝向
type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// Action 客户端可按住的四个按键
type Action string

const (
	ActionLeft   Action = "left"
	ActionRight  Action = "right"
	ActionJump   Action = "jump"
	ActionAttack Action = "attack"
)

// Inputs 按键的按住状态，后写覆盖，不排队
type Inputs struct {
	Left   bool
	Right  bool
	Jump   bool
	Attack bool
}

// Set 更新单个按键，未知按键返回 false
func (in *Inputs) Set(action Action, pressed bool) bool {
	switch action {
	case ActionLeft:
		in.Left = pressed
	case ActionRight:
		in.Right = pressed
	case ActionJump:
		in.Jump = pressed
	case ActionAttack:
		in.Attack = pressed
	default:
		return false
	}
	return true
}

// PlayerState 为广播给客户端的公开状态
type PlayerState struct {
	ID          PlayerID `json:"id"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Facing      Facing   `json:"facing"`
	Health      int      `json:"health"`
	IsAttacking bool     `json:"isAttacking"`
}

// Player 房间内的玩家实体（服务端权威状态），归属于唯一的 Room
type Player struct {
	ID PlayerID
	X  float64
	Y  float64
	VX float64
	VY float64

	Facing         Facing
	Health         int
	IsAttacking    bool
	AttackCooldown int
	OnGround       bool
	Inputs         Inputs

	Conn Conn // 网络连接的发送端
	room *Room
}

func newPlayer(id PlayerID, room *Room, conn Conn) *Player {
	p := &Player{ID: id, room: room, Conn: conn}
	p.Spawn()
	return p
}

// Spawn 回到出生点：player1 在左侧朝右，player2 在右侧朝左
func (p *Player) Spawn() {
	p.X, p.Facing = SpawnLeftX, FacingRight
	if p.ID == Player2 {
		p.X, p.Facing = SpawnRightX, FacingLeft
	}
	p.Y = GroundY
	p.VX, p.VY = 0, 0
	p.Health = MaxHealth
	p.IsAttacking = false
	p.AttackCooldown = 0
	p.OnGround = true
}

// State 返回快照用的公开字段
func (p *Player) State() PlayerState {
	return PlayerState{
		ID:          p.ID,
		X:           p.X,
		Y:           p.Y,
		Facing:      p.Facing,
		Health:      p.Health,
		IsAttacking: p.IsAttacking,
	}
}

// Update 推进一帧，步骤顺序固定
func (p *Player) Update() {
	// 1. 水平速度每帧按输入重算，左右同按时右键生效
	p.VX = 0
	if p.Inputs.Left {
		p.VX = -MoveSpeed
		p.Facing = FacingLeft
	}
	if p.Inputs.Right {
		p.VX = MoveSpeed
		p.Facing = FacingRight
	}

	// 2. 跳跃
	if p.Inputs.Jump && p.OnGround {
		p.VY = JumpStrength
		p.OnGround = false
	}

	// 3. 重力，起跳当帧同样生效
	if !p.OnGround {
		p.VY += Gravity
	}

	// 4. 积分
	p.X += p.VX
	p.Y += p.VY

	// 5. 地面碰撞
	if p.Y >= GroundY {
		p.Y = GroundY
		p.VY = 0
		p.OnGround = true
	}

	// 6. 边界
	p.X = clampX(p.X)

	// 7. 攻击是单帧脉冲
	if p.Inputs.Attack && p.AttackCooldown <= 0 {
		p.IsAttacking = true
		p.AttackCooldown = AttackCooldownTicks
		p.checkAttack()
	} else {
		p.IsAttacking = false
	}

	// 8. 冷却
	if p.AttackCooldown > 0 {
		p.AttackCooldown--
	}
}

// checkAttack 对同房间其他玩家做近战判定
func (p *Player) checkAttack() {
	if p.room == nil {
		return
	}
	for _, other := range p.room.orderedPlayers() {
		if other == p {
			continue
		}
		if !p.canHit(other) {
			continue
		}
		other.Health -= AttackDamage
		if other.Health < 0 {
			other.Health = 0
		}
		if p.Facing == FacingRight {
			other.X = clampX(other.X + Knockback)
		} else {
			other.X = clampX(other.X - Knockback)
		}
		Log.Debugf("hit: room=%s attacker=%s target=%s health=%d", p.room.Code, p.ID, other.ID, other.Health)

		if other.Health == 0 {
			p.room.finish(p.ID)
		}
	}
}

// canHit 距离小于攻击范围且面向目标
func (p *Player) canHit(other *Player) bool {
	dx := other.X - p.X
	if dx < 0 {
		dx = -dx
	}
	if dx >= AttackRange {
		return false
	}
	switch p.Facing {
	case FacingRight:
		return other.X > p.X
	case FacingLeft:
		return other.X < p.X
	}
	return false
}

func clampX(x float64) float64 {
	if x < MinX {
		return MinX
	}
	if x > MaxX {
		return MaxX
	}
	return x
}
