package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telegramsouls/server/internal/game/world"
)

func newTestManager(t *testing.T) *world.Manager {
	t.Helper()
	mgr, err := world.NewManager([]*world.Zone{validZone()})
	require.NoError(t, err)
	return mgr
}

func TestNewManager_RequiresZones(t *testing.T) {
	_, err := world.NewManager(nil)
	assert.Error(t, err)
}

func TestNewManager_DuplicateZone(t *testing.T) {
	_, err := world.NewManager([]*world.Zone{validZone(), validZone()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate zone")
}

func TestNewManager_DuplicateRoomAcrossZones(t *testing.T) {
	other := validZone()
	other.ID = "z2"
	for _, r := range other.Rooms {
		r.ZoneID = "z2"
	}
	_, err := world.NewManager([]*world.Zone{validZone(), other})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate room")
}

func TestManager_GetRoom(t *testing.T) {
	mgr := newTestManager(t)

	room, ok := mgr.GetRoom("a")
	require.True(t, ok)
	assert.Equal(t, "Room A", room.Title)

	_, ok = mgr.GetRoom("nowhere")
	assert.False(t, ok)
}

func TestManager_Navigate(t *testing.T) {
	mgr := newTestManager(t)

	dest, err := mgr.Navigate("a", world.North)
	require.NoError(t, err)
	assert.Equal(t, "b", dest.ID)
}

func TestManager_Navigate_NoExit(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.Navigate("a", world.East)
	require.Error(t, err)
	assert.ErrorIs(t, err, world.ErrNoExit)
}

func TestManager_Navigate_UnknownRoom(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.Navigate("nowhere", world.North)
	require.Error(t, err)
	assert.NotErrorIs(t, err, world.ErrNoExit)
}

func TestManager_StartRoomAndCounts(t *testing.T) {
	mgr := newTestManager(t)
	assert.Equal(t, "a", mgr.StartRoom())
	assert.Equal(t, 1, mgr.ZoneCount())
	assert.Equal(t, 2, mgr.RoomCount())
	assert.Len(t, mgr.AllZones(), 1)
}

func TestManager_ValidateExits_Dangling(t *testing.T) {
	// Bypass zone validation to simulate a cross-zone dangling target.
	zone := validZone()
	zone.Rooms["a"].Exits[0].TargetRoom = "other_zone_room"

	mgr, err := world.NewManager([]*world.Zone{zone})
	require.NoError(t, err)

	err = mgr.ValidateExits()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown room")
}
