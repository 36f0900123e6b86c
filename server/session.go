package server

// SessionState 单个连接的协议状态
type SessionState int

const (
	SessionUnbound SessionState = iota
	SessionBound
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionUnbound:
		return "unbound"
	case SessionBound:
		return "bound"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session 每个连接独有的绑定状态（房间与槽位），不与其他连接共享
type Session struct {
	conn   Conn
	state  SessionState
	room   *Room
	player *Player
}

func newSession(conn Conn) *Session {
	return &Session{conn: conn, state: SessionUnbound}
}

func (s *Session) bind(r *Room, p *Player) {
	s.room = r
	s.player = p
	s.state = SessionBound
}

func (s *Session) close() {
	s.room = nil
	s.player = nil
	s.state = SessionClosed
}

// handleMessage 按消息类型路由；误用协议的消息静默忽略
func (h *Hub) handleMessage(s *Session, msg *Message) {
	if s.state == SessionClosed {
		return
	}
	switch msg.Type {
	case EventCreateRoom:
		h.handleCreateRoom(s)
	case EventJoinRoom:
		var req JoinRoomRequest
		if err := msg.DecodePayload(&req); err != nil {
			Log.Warnf("conn=%s: %v", s.conn.ID(), err)
			return
		}
		h.handleJoinRoom(s, req)
	case EventInput:
		var req InputRequest
		if err := msg.DecodePayload(&req); err != nil {
			Log.Warnf("conn=%s: %v", s.conn.ID(), err)
			return
		}
		h.handleInput(s, req)
	case EventRestart:
		h.handleRestart(s)
	default:
		Log.Debugf("conn=%s: unknown message type %q", s.conn.ID(), msg.Type)
	}
}

func (h *Hub) handleCreateRoom(s *Session) {
	if s.state != SessionUnbound {
		Log.Debugf("conn=%s: createRoom while %s ignored", s.conn.ID(), s.state)
		return
	}
	r := h.rooms.CreateRoom()
	p, err := r.AddPlayer(s.conn)
	if err != nil {
		// 新房间不可能满员
		Log.Errorf("add creator to room %s: %v", r.Code, err)
		h.rooms.RemoveIfEmpty(r.Code)
		return
	}
	s.bind(r, p)
	h.metrics.IncRoomsCreated()
	Log.Infof("room created: room=%s player=%s conn=%s", r.Code, p.ID, s.conn.ID())

	h.send(s.conn, EventRoomCreated, RoomInfo{
		RoomCode:    r.Code,
		PlayerID:    p.ID,
		PlayerCount: r.PlayerCount(),
		MaxPlayers:  MaxPlayers,
	})
	// 单人也可直接进入练习
	h.send(s.conn, EventGameStart, nil)
}

func (h *Hub) handleJoinRoom(s *Session, req JoinRoomRequest) {
	if s.state != SessionUnbound {
		Log.Debugf("conn=%s: joinRoom while %s ignored", s.conn.ID(), s.state)
		return
	}
	r, ok := h.rooms.GetRoom(req.RoomCode)
	if !ok {
		Log.Debugf("conn=%s: room %q not found", s.conn.ID(), req.RoomCode)
		h.send(s.conn, EventRoomNotFound, nil)
		return
	}
	p, err := r.AddPlayer(s.conn)
	if err != nil {
		Log.Debugf("conn=%s: join room %s: %v", s.conn.ID(), r.Code, err)
		h.send(s.conn, EventRoomFull, nil)
		return
	}
	s.bind(r, p)
	Log.Infof("player joined: room=%s player=%s conn=%s", r.Code, p.ID, s.conn.ID())

	h.send(s.conn, EventRoomJoined, RoomInfo{
		RoomCode:    r.Code,
		PlayerID:    p.ID,
		PlayerCount: r.PlayerCount(),
		MaxPlayers:  MaxPlayers,
	})
	h.broadcast(r, EventPlayerJoined, PlayerPresence{
		PlayerID:    p.ID,
		PlayerCount: r.PlayerCount(),
		MaxPlayers:  MaxPlayers,
	})
	if r.IsFull() {
		h.broadcast(r, EventGameStart, nil)
	}
}

func (h *Hub) handleInput(s *Session, req InputRequest) {
	if s.state != SessionBound || !s.room.Running() {
		h.metrics.IncInputsIgnored()
		return
	}
	if !s.player.Inputs.Set(req.Action, req.Pressed) {
		Log.Debugf("conn=%s: unknown action %q", s.conn.ID(), req.Action)
		h.metrics.IncInputsIgnored()
		return
	}
	h.metrics.IncInputsApplied()
}

func (h *Hub) handleRestart(s *Session) {
	if s.state != SessionBound {
		return
	}
	s.room.Restart()
	Log.Infof("room restarted: room=%s by=%s", s.room.Code, s.player.ID)
	h.broadcast(s.room, EventGameStart, nil)
}

// handleDisconnect 释放槽位；房间为空时同步从注册表删除
func (h *Hub) handleDisconnect(s *Session) {
	defer s.close()
	if s.state != SessionBound {
		Log.Debugf("disconnected: conn=%s (unbound)", s.conn.ID())
		return
	}
	r, p := s.room, s.player
	empty := r.RemovePlayer(p.ID)
	Log.Infof("player left: room=%s player=%s remaining=%d", r.Code, p.ID, r.PlayerCount())

	if empty {
		if h.rooms.RemoveIfEmpty(r.Code) {
			h.metrics.IncRoomsRemoved()
			Log.Infof("room removed: room=%s", r.Code)
		}
		return
	}
	h.broadcast(r, EventPlayerLeft, PlayerPresence{
		PlayerID:    p.ID,
		PlayerCount: r.PlayerCount(),
		MaxPlayers:  MaxPlayers,
	})
}
