package server

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roomCodePattern = regexp.MustCompile(`^[1-9][0-9]{3}$`)

func TestRoomManager_CreateRoomCodes(t *testing.T) {
	m := NewRoomManager(rand.New(rand.NewSource(42)))

	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		r := m.CreateRoom()
		require.Regexp(t, roomCodePattern, r.Code)
		require.False(t, seen[r.Code], "duplicate code %s", r.Code)
		seen[r.Code] = true
	}
	assert.Equal(t, 2000, m.Len())
}

func TestRoomManager_CreateRoomRedrawsOnCollision(t *testing.T) {
	first := NewRoomManager(rand.New(rand.NewSource(7))).CreateRoom().Code

	// 同一种子的第一次抽取必然冲突
	m := NewRoomManager(rand.New(rand.NewSource(7)))
	m.rooms[first] = NewRoom(first)

	r := m.CreateRoom()
	assert.NotEqual(t, first, r.Code)
	assert.Regexp(t, roomCodePattern, r.Code)
	assert.Equal(t, 2, m.Len())
}

func TestRoomManager_GetRoom(t *testing.T) {
	m := NewRoomManager(nil)
	r := m.CreateRoom()

	got, ok := m.GetRoom(r.Code)
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = m.GetRoom("0000")
	assert.False(t, ok)
}

func TestRoomManager_RemoveIfEmpty(t *testing.T) {
	m := NewRoomManager(nil)
	r := m.CreateRoom()
	_, err := r.AddPlayer(nil)
	require.NoError(t, err)

	assert.False(t, m.RemoveIfEmpty(r.Code), "occupied room is kept")
	_, ok := m.GetRoom(r.Code)
	assert.True(t, ok)

	r.RemovePlayer(Player1)
	assert.True(t, m.RemoveIfEmpty(r.Code))
	_, ok = m.GetRoom(r.Code)
	assert.False(t, ok)

	assert.False(t, m.RemoveIfEmpty(r.Code), "unknown code is a no-op")
}

func TestRoomManager_RoomsSortedAndClear(t *testing.T) {
	m := NewRoomManager(rand.New(rand.NewSource(1)))
	for i := 0; i < 5; i++ {
		m.CreateRoom()
	}

	rooms := m.Rooms()
	require.Len(t, rooms, 5)
	for i := 1; i < len(rooms); i++ {
		assert.Less(t, rooms[i-1].Code, rooms[i].Code)
	}

	m.Clear()
	assert.Zero(t, m.Len())
}
