package session

import (
	"fmt"
	"sync"
)

// Storage tracks all active sessions and room occupancy.
//
// All methods are safe for concurrent use. The reference caller is a single
// dispatch goroutine, but reads (snapshots, occupancy queries) may arrive
// from other goroutines at any time, so every access is lock-protected.
type Storage struct {
	mu        sync.RWMutex
	sessions  map[int64]*Session
	order     []int64                   // ids in creation order, for stable enumeration
	roomSets  map[string]map[int64]bool // roomID to the set of occupying session ids
	startRoom string
}

// NewStorage creates an empty Storage. New sessions are bound to startRoomID.
//
// Precondition: startRoomID must be a resolvable room id.
func NewStorage(startRoomID string) *Storage {
	return &Storage{
		sessions:  make(map[int64]*Session),
		roomSets:  make(map[string]map[int64]bool),
		startRoom: startRoomID,
	}
}

// IsActive reports whether a session exists for id.
func (s *Storage) IsActive(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Create registers a new session bound to the start room.
//
// Precondition: no session may exist for id; callers check IsActive first.
// Postcondition: Returns the created Session, or an error if id is already
// registered.
func (s *Storage) Create(id int64, name string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("session %d already active", id)
	}

	sess := &Session{
		ID:     id,
		Name:   name,
		RoomID: s.startRoom,
	}
	s.sessions[id] = sess
	s.order = append(s.order, id)
	s.addToRoomLocked(id, s.startRoom)
	return sess, nil
}

// Get returns the session for id.
//
// Precondition: the session must be active; callers check IsActive first.
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (s *Storage) Get(id int64) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Touch records the id of the player's most recent message for reply
// addressing.
//
// Postcondition: Returns an error if no session exists for id.
func (s *Storage) Touch(id, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %d not found", id)
	}
	sess.LastMessageID = messageID
	return nil
}

// Move rebinds the session to a new room and updates the occupancy index.
//
// Postcondition: Returns the previous room id, or an error if no session
// exists for id.
func (s *Storage) Move(id int64, roomID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return "", fmt.Errorf("session %d not found", id)
	}

	oldRoomID := sess.RoomID
	s.removeFromRoomLocked(id, oldRoomID)
	sess.RoomID = roomID
	s.addToRoomLocked(id, roomID)
	return oldRoomID, nil
}

// Abandon removes the session for id.
//
// Removing a non-existent id is a caller error and is reported, not ignored.
func (s *Storage) Abandon(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %d not found", id)
	}

	s.removeFromRoomLocked(id, sess.RoomID)
	delete(s.sessions, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Sessions returns a value-copy snapshot of all active sessions in creation
// order. The snapshot is stable: concurrent mutations do not affect it.
func (s *Storage) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.order))
	for _, id := range s.order {
		if sess, ok := s.sessions[id]; ok {
			out = append(out, *sess)
		}
	}
	return out
}

// Names returns the display names of all active sessions in creation order.
func (s *Storage) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if sess, ok := s.sessions[id]; ok {
			names = append(names, sess.Name)
		}
	}
	return names
}

// SessionsInRoom returns a value-copy snapshot of the sessions occupying
// roomID, in creation order.
func (s *Storage) SessionsInRoom(roomID string) []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.roomSets[roomID]
	if !ok {
		return nil
	}

	out := make([]Session, 0, len(ids))
	for _, id := range s.order {
		if !ids[id] {
			continue
		}
		if sess, ok := s.sessions[id]; ok {
			out = append(out, *sess)
		}
	}
	return out
}

// Count returns the number of active sessions.
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Restore re-registers previously persisted sessions, preserving their room
// bindings and reply ids. Intended for process startup before the dispatcher
// runs.
//
// Postcondition: Returns an error on a duplicate id; earlier entries in the
// same call remain registered.
func (s *Storage) Restore(sessions []Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range sessions {
		if _, exists := s.sessions[sess.ID]; exists {
			return fmt.Errorf("session %d already active", sess.ID)
		}
		copied := sess
		s.sessions[sess.ID] = &copied
		s.order = append(s.order, sess.ID)
		s.addToRoomLocked(sess.ID, sess.RoomID)
	}
	return nil
}

func (s *Storage) addToRoomLocked(id int64, roomID string) {
	if s.roomSets[roomID] == nil {
		s.roomSets[roomID] = make(map[int64]bool)
	}
	s.roomSets[roomID][id] = true
}

func (s *Storage) removeFromRoomLocked(id int64, roomID string) {
	if rs, ok := s.roomSets[roomID]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(s.roomSets, roomID)
		}
	}
}
