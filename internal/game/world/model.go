// Package world provides the navigation graph: zones, rooms, exits, and the
// four compass directions.
package world

import "fmt"

// Direction is one of the four compass directions.
type Direction string

// The four directions a player can move in.
const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Directions lists all valid directions.
var Directions = []Direction{North, South, East, West}

// Valid reports whether d is one of the four compass directions.
func (d Direction) Valid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// Opposite returns the opposing direction, or an empty string for an invalid
// direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return ""
	}
}

// Exit is a passage from one room to a neighboring room.
type Exit struct {
	// Direction is the compass direction of the passage.
	Direction Direction
	// TargetRoom is the id of the destination room.
	TargetRoom string
}

// Room is a node in the navigation graph.
type Room struct {
	// ID uniquely identifies the room within the world.
	ID string
	// ZoneID identifies the zone the room belongs to.
	ZoneID string
	// Title is the short display name of the room.
	Title string
	// Description is the multi-line room description shown on look.
	Description string
	// Exits lists the passages leading out of the room. Any direction may
	// be absent; at most one exit per direction.
	Exits []Exit
}

// ExitTo returns the exit in the given direction, if one exists.
//
// Postcondition: Returns (exit, true) if found, or (Exit{}, false) otherwise.
func (r *Room) ExitTo(dir Direction) (Exit, bool) {
	for _, e := range r.Exits {
		if e.Direction == dir {
			return e, true
		}
	}
	return Exit{}, false
}

// Zone groups related rooms into a themed area.
type Zone struct {
	// ID uniquely identifies the zone.
	ID string
	// Name is the display name of the zone.
	Name string
	// Description summarizes the zone's theme.
	Description string
	// StartRoom is the id of the default entry room.
	StartRoom string
	// Rooms contains all rooms in the zone, keyed by room id.
	Rooms map[string]*Room
	// ScriptDir is the path to Lua context-action scripts for this zone.
	// Empty = no scripts.
	ScriptDir string
	// ScriptInstructionLimit overrides the default Lua opcode limit for this
	// zone's VM. 0 = use the default.
	ScriptInstructionLimit int
}

// Validate checks zone invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first
// violation.
func (z *Zone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("zone ID must not be empty")
	}
	if z.Name == "" {
		return fmt.Errorf("zone %q: name must not be empty", z.ID)
	}
	if z.StartRoom == "" {
		return fmt.Errorf("zone %q: start_room must not be empty", z.ID)
	}
	if len(z.Rooms) == 0 {
		return fmt.Errorf("zone %q: must contain at least one room", z.ID)
	}
	if _, ok := z.Rooms[z.StartRoom]; !ok {
		return fmt.Errorf("zone %q: start_room %q not found in rooms", z.ID, z.StartRoom)
	}
	for id, room := range z.Rooms {
		if room.ID != id {
			return fmt.Errorf("zone %q: room key %q does not match room ID %q", z.ID, id, room.ID)
		}
		if room.Title == "" {
			return fmt.Errorf("zone %q: room %q: title must not be empty", z.ID, id)
		}
		if room.Description == "" {
			return fmt.Errorf("zone %q: room %q: description must not be empty", z.ID, id)
		}
		seen := make(map[Direction]bool, len(room.Exits))
		for _, exit := range room.Exits {
			if !exit.Direction.Valid() {
				return fmt.Errorf("zone %q: room %q: invalid exit direction %q", z.ID, id, exit.Direction)
			}
			if seen[exit.Direction] {
				return fmt.Errorf("zone %q: room %q: duplicate exit %q", z.ID, id, exit.Direction)
			}
			seen[exit.Direction] = true
			if exit.TargetRoom == "" {
				return fmt.Errorf("zone %q: room %q: exit %q has empty target", z.ID, id, exit.Direction)
			}
			if _, ok := z.Rooms[exit.TargetRoom]; !ok {
				return fmt.Errorf("zone %q: room %q: exit %q targets unknown room %q", z.ID, id, exit.Direction, exit.TargetRoom)
			}
		}
	}
	return nil
}
