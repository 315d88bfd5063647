// Package session provides the session-lifecycle store: one live Session per
// chat user, keyed by the user's numeric identity, with a room occupancy
// index for broadcast target resolution.
package session

// Session is the live state of one playing user.
//
// Sessions are owned exclusively by the Storage that created them. Fields are
// mutated only through Storage methods so the room occupancy index stays
// consistent; callers outside the dispatch goroutine must use Storage
// snapshots instead of retaining the pointer.
type Session struct {
	// ID is the sender's numeric identity (unique key).
	ID int64
	// Name is the display name shown to other players.
	Name string
	// RoomID is the room the player currently occupies. Never empty while
	// the session is alive.
	RoomID string
	// LastMessageID is the id of the most recently processed message from
	// this player, used to address threaded replies.
	LastMessageID int64
}
