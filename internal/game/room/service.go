// Package room implements the room capability contract: look, directional
// movement, and room-specific context actions. It owns the policy that moving
// into an absent exit replies with an explicit "no exit" notice.
package room

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/telegramsouls/server/internal/game/session"
	"github.com/telegramsouls/server/internal/game/world"
	"github.com/telegramsouls/server/internal/scripting"
)

// Sender delivers outbound text. The concrete transport is out of scope here;
// SendToRoom resolves recipients from the session's current room, ReplyTo
// addresses the sender via the session's last message id.
type Sender interface {
	SendToRoom(sess *session.Session, text string)
	ReplyTo(sess *session.Session, text string)
}

// Service resolves room operations against the world graph, rebinding the
// session's room on successful movement and announcing departure/arrival.
// All network I/O is delegated to the Sender.
type Service struct {
	world    *world.Manager
	sessions *session.Storage
	sender   Sender
	scripts  *scripting.Manager // nil = context actions disabled
	logger   *zap.Logger
}

// NewService creates a room Service.
//
// Precondition: worldMgr, sessions, sender, and logger must be non-nil;
// scripts may be nil to disable context actions.
func NewService(worldMgr *world.Manager, sessions *session.Storage, sender Sender, scripts *scripting.Manager, logger *zap.Logger) *Service {
	return &Service{
		world:    worldMgr,
		sessions: sessions,
		sender:   sender,
		scripts:  scripts,
		logger:   logger,
	}
}

// Look replies to the player with the current room's title, description,
// visible exits, and other occupants.
//
// Precondition: sess must be bound to a resolvable room.
func (s *Service) Look(sess *session.Session) {
	room, ok := s.world.GetRoom(sess.RoomID)
	if !ok {
		s.logger.Error("look in unresolvable room",
			zap.Int64("session_id", sess.ID),
			zap.String("room_id", sess.RoomID),
		)
		return
	}
	s.sender.ReplyTo(sess, s.describe(room, sess))
}

// GoNorth moves the session through the north exit.
func (s *Service) GoNorth(sess *session.Session) { s.move(sess, world.North) }

// GoSouth moves the session through the south exit.
func (s *Service) GoSouth(sess *session.Session) { s.move(sess, world.South) }

// GoEast moves the session through the east exit.
func (s *Service) GoEast(sess *session.Session) { s.move(sess, world.East) }

// GoWest moves the session through the west exit.
func (s *Service) GoWest(sess *session.Session) { s.move(sess, world.West) }

// move resolves the exit, announces departure to the old room, rebinds the
// session, announces arrival to the new room, and shows the new room to the
// mover. An absent exit leaves the session's room unchanged and replies with
// a notice.
func (s *Service) move(sess *session.Session, dir world.Direction) {
	target, err := s.world.Navigate(sess.RoomID, dir)
	if err != nil {
		if errors.Is(err, world.ErrNoExit) {
			s.sender.ReplyTo(sess, fmt.Sprintf("There is no way %s from here.", dir))
			return
		}
		s.logger.Error("navigation failed",
			zap.Int64("session_id", sess.ID),
			zap.String("room_id", sess.RoomID),
			zap.String("direction", string(dir)),
			zap.Error(err),
		)
		return
	}

	// Announce to the old room while the session still occupies it.
	s.sender.SendToRoom(sess, fmt.Sprintf("%s leaves to the %s.", sess.Name, dir))

	if _, err := s.sessions.Move(sess.ID, target.ID); err != nil {
		s.logger.Error("rebinding session room",
			zap.Int64("session_id", sess.ID),
			zap.Error(err),
		)
		return
	}

	s.sender.SendToRoom(sess, fmt.Sprintf("%s arrives from the %s.", sess.Name, dir.Opposite()))
	s.sender.ReplyTo(sess, s.describe(target, sess))
}

// ProcessContextAction offers the raw text to the current room's zone script.
//
// Postcondition: Returns true if the script handled the action. A string
// return from the hook is broadcast to the room; true is handled silently;
// nil/false falls through to the caller.
func (s *Service) ProcessContextAction(sess *session.Session, text string) bool {
	if s.scripts == nil {
		return false
	}

	room, ok := s.world.GetRoom(sess.RoomID)
	if !ok {
		return false
	}

	ret, err := s.scripts.CallHook(room.ZoneID, scripting.ContextActionHook,
		lua.LString(room.ID), lua.LString(sess.Name), lua.LString(text))
	if err != nil {
		return false
	}

	switch v := ret.(type) {
	case lua.LString:
		s.sender.SendToRoom(sess, string(v))
		return true
	case lua.LBool:
		return bool(v)
	default:
		return false
	}
}

// describe renders the room for one player.
func (s *Service) describe(room *world.Room, sess *session.Session) string {
	var b strings.Builder
	b.WriteString(room.Title)
	b.WriteString("\n")
	b.WriteString(room.Description)

	if len(room.Exits) > 0 {
		dirs := make([]string, 0, len(room.Exits))
		for _, d := range world.Directions {
			if _, ok := room.ExitTo(d); ok {
				dirs = append(dirs, string(d))
			}
		}
		b.WriteString("\n\nExits: ")
		b.WriteString(strings.Join(dirs, ", "))
	}

	var others []string
	for _, occupant := range s.sessions.SessionsInRoom(room.ID) {
		if occupant.ID != sess.ID {
			others = append(others, occupant.Name)
		}
	}
	if len(others) > 0 {
		b.WriteString("\nAlso here: ")
		b.WriteString(strings.Join(others, ", "))
	}

	return b.String()
}
