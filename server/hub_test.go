package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_TickBroadcastsRunningRooms(t *testing.T) {
	h := testHub(t)
	solo, idle := newFakeConn(), newFakeConn()
	code := createRoom(t, h, solo)
	h.connect(idle)
	solo.reset()

	h.message(t, solo, EventInput, InputRequest{Action: ActionRight, Pressed: true})
	h.tick()

	require.Equal(t, []string{EventGameState}, solo.types(t))
	assert.Empty(t, idle.types(t))

	var state GameState
	solo.last(t, EventGameState, &state)
	require.Contains(t, state.Players, Player1)
	assert.Equal(t, PlayerState{ID: Player1, X: SpawnLeftX + MoveSpeed, Y: GroundY, Facing: FacingRight, Health: MaxHealth}, state.Players[Player1])

	r, _ := h.rooms.GetRoom(code)
	assert.True(t, r.Running())
	assert.EqualValues(t, 1, h.metrics.SnapshotsSent)
	assert.EqualValues(t, 1, h.metrics.TickCount)
}

func TestHub_GameOverFlow(t *testing.T) {
	h := testHub(t)
	host, guest := newFakeConn(), newFakeConn()
	code := createRoom(t, h, host)
	joinRoom(t, h, guest, code)

	r, _ := h.rooms.GetRoom(code)
	p1, _ := r.Player(Player1)
	p2, _ := r.Player(Player2)
	p1.X = 500
	p2.X, p2.Health = 550, AttackDamage
	host.reset()
	guest.reset()

	h.message(t, host, EventInput, InputRequest{Action: ActionAttack, Pressed: true})
	h.tick()

	for _, c := range []*fakeConn{host, guest} {
		assert.Equal(t, []string{EventGameState, EventGameOver}, c.types(t))
		var over GameOver
		c.last(t, EventGameOver, &over)
		assert.Equal(t, Player1, over.Winner)

		var state GameState
		c.last(t, EventGameState, &state)
		assert.Equal(t, 0, state.Players[Player2].Health)
	}
	assert.False(t, r.Running())

	// 结束后不再推进、不再广播，输入也被忽略
	host.reset()
	h.message(t, guest, EventInput, InputRequest{Action: ActionLeft, Pressed: true})
	for i := 0; i < 5; i++ {
		h.tick()
	}
	assert.Empty(t, host.types(t))
	assert.False(t, p2.Inputs.Left)
	assert.Equal(t, 570.0, p2.X)

	// 重启后恢复
	h.message(t, guest, EventRestart, nil)
	h.tick()
	assert.Equal(t, []string{EventGameStart, EventGameState}, host.types(t))
	assert.Equal(t, MaxHealth, p2.Health)
}

func TestHub_SoloRoomNeverGameOver(t *testing.T) {
	h := testHub(t)
	c := newFakeConn()
	createRoom(t, h, c)
	h.message(t, c, EventInput, InputRequest{Action: ActionAttack, Pressed: true})

	for i := 0; i < 300; i++ {
		h.tick()
	}

	assert.Zero(t, c.count(t, EventGameOver))
	assert.Equal(t, 300, c.count(t, EventGameState))
}

func TestHub_DrainNotifiesAndClosesSessions(t *testing.T) {
	h := testHub(t)
	host, lobby := newFakeConn(), newFakeConn()
	createRoom(t, h, host)
	h.connect(lobby)

	n := h.Drain(context.Background())

	assert.Equal(t, 2, n)
	for _, c := range []*fakeConn{host, lobby} {
		assert.Equal(t, EventServerShutdown, c.types(t)[len(c.types(t))-1])
		assert.True(t, c.isClosed())
		assert.False(t, c.isTerminated(), "closed gracefully")
	}
	assert.Zero(t, h.rooms.Len())
	assert.Empty(t, h.sessions)
}

func TestHub_DrainTerminatesStuckConnections(t *testing.T) {
	h := testHub(t)
	healthy, stuck := newFakeConn(), newFakeConn()
	stuck.stuck = true
	createRoom(t, h, healthy)
	h.connect(stuck)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	h.Drain(ctx)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.False(t, healthy.isTerminated())
	assert.True(t, stuck.isTerminated())
	assert.Equal(t, EventServerShutdown, stuck.types(t)[len(stuck.types(t))-1])
}

func TestHub_StoppedRejectsCommands(t *testing.T) {
	h := NewHub(NewHubOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.Run(ctx) }()
	cancel()
	<-h.Done()

	assert.False(t, h.Connect(newFakeConn()))
	assert.ErrorIs(t, h.Do(context.Background(), func() {}), ErrHubStopped)
}

func TestHub_RunTickCadence(t *testing.T) {
	h := NewHub(NewHubOptions{TickRate: 60})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx) }()

	c := newFakeConn()
	require.True(t, h.Connect(c))
	require.True(t, h.Submit(c, mustMessage(t, EventCreateRoom, nil)))

	time.Sleep(time.Second)
	cancel()
	require.NoError(t, <-errCh)

	// 允许调度抖动
	frames := c.count(t, EventGameState)
	assert.InDelta(t, 60, frames, 15)
}

func TestHub_RunPanicBecomesFault(t *testing.T) {
	h := NewHub(NewHubOptions{})
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(context.Background()) }()

	_ = h.Do(context.Background(), func() { panic("corrupted state") })

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrSimulationFault)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop after panic")
	}

	// 循环退出后提交会失败而不是阻塞
	assert.False(t, h.Connect(newFakeConn()))
}

func TestHub_DoRunsInsideLoop(t *testing.T) {
	h := NewHub(NewHubOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()

	c := newFakeConn()
	require.True(t, h.Connect(c))
	require.True(t, h.Submit(c, mustMessage(t, EventCreateRoom, nil)))

	var rooms, sessions int
	require.NoError(t, h.Do(ctx, func() {
		rooms = h.rooms.Len()
		sessions = len(h.sessions)
	}))
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, sessions)
}
