// Package dispatch runs the single-consumer command loop: it dequeues one
// inbound message at a time and interprets it against the fixed command
// grammar as a state transition over sessions and rooms.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telegramsouls/server/internal/game/message"
	"github.com/telegramsouls/server/internal/game/queue"
	"github.com/telegramsouls/server/internal/game/room"
	"github.com/telegramsouls/server/internal/game/session"
)

// Recognized command tokens. Matching is case-insensitive and exact; the
// bracketed tokens mirror the reply-keyboard buttons the sender attaches to
// every outbound message.
const (
	CommandStart = "/start"
	CommandStop  = "/stop"
	CommandWho   = "/who"
	TokenNorth   = "[north]"
	TokenSouth   = "[south]"
	TokenEast    = "[east]"
	TokenWest    = "[west]"
	TokenLook    = "[look]"
)

// Announcement templates for session lifecycle broadcasts.
const (
	arrivalFormat   = "%s materializes out of thin air."
	departureFormat = "%s slowly dissolves into the air."
)

// Dispatcher is the single consumer of the message queue. Exactly one message
// is processed at a time, in arrival order; side effects are delegated to the
// room service and the sender, never performed here.
type Dispatcher struct {
	queue    *queue.Queue
	sessions *session.Storage
	rooms    *room.Service
	sender   room.Sender
	logger   *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

// New creates a Dispatcher. Call Start to begin consuming.
//
// Precondition: all arguments must be non-nil.
func New(q *queue.Queue, sessions *session.Storage, rooms *room.Service, sender room.Sender, logger *zap.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		queue:    q,
		sessions: sessions,
		rooms:    rooms,
		sender:   sender,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start runs the dispatch loop until Stop is called. It blocks; run it from a
// dedicated goroutine (the server lifecycle does this). The loop parks on the
// queue when it is empty rather than polling.
//
// Postcondition: Returns nil after a clean stop, or an error if the
// dispatcher was already started.
func (d *Dispatcher) Start() error {
	if !d.started.CompareAndSwap(false, true) {
		return errors.New("dispatcher already started")
	}
	defer close(d.done)

	d.logger.Info("dispatcher started")
	for {
		msg, ok := d.queue.Dequeue(d.ctx)
		if !ok {
			d.logger.Info("dispatcher stopped")
			return nil
		}
		d.handle(msg)
	}
}

// Stop signals the dispatch loop to exit at the next safe point and waits for
// it to finish. A message being processed always completes; Stop is
// idempotent and safe to call before Start.
func (d *Dispatcher) Stop() {
	d.cancel()
	if d.started.Load() {
		<-d.done
	}
}

// handle applies the command decision table to one message. Rules are checked
// in strict priority order; the first match wins. Ordering is load-bearing:
// the inactive-session guard must short-circuit before any content command.
func (d *Dispatcher) handle(msg message.Message) {
	log := d.logger.With(
		zap.String("trace_id", uuid.NewString()),
		zap.Int64("sender_id", msg.SenderID),
	)

	// Rule 1: /start creates a session; re-entrant /start is a no-op.
	if strings.EqualFold(msg.Text, CommandStart) {
		if d.sessions.IsActive(msg.SenderID) {
			log.Debug("start ignored, session already active")
			return
		}
		sess, err := d.sessions.Create(msg.SenderID, msg.SenderName)
		if err != nil {
			log.Error("creating session", zap.Error(err))
			return
		}
		log.Info("session started", zap.String("name", sess.Name), zap.String("room", sess.RoomID))
		d.sender.SendToRoom(sess, fmt.Sprintf(arrivalFormat, sess.Name))
		d.rooms.Look(sess)
		return
	}

	// Rule 2: anything else from a sender without a session is ignored.
	if !d.sessions.IsActive(msg.SenderID) {
		log.Debug("ignoring message from inactive sender")
		return
	}

	sess, ok := d.sessions.Get(msg.SenderID)
	if !ok {
		// Unreachable: guarded by IsActive above, single consumer.
		log.Error("active session vanished")
		return
	}

	// Record the reply target before any command that may answer.
	if err := d.sessions.Touch(msg.SenderID, msg.MessageID); err != nil {
		log.Error("recording reply id", zap.Error(err))
		return
	}

	switch {
	case strings.EqualFold(msg.Text, CommandStop):
		// Announce while the session still occupies its room.
		d.sender.SendToRoom(sess, fmt.Sprintf(departureFormat, sess.Name))
		if err := d.sessions.Abandon(sess.ID); err != nil {
			log.Error("abandoning session", zap.Error(err))
		}
		log.Info("session stopped", zap.String("name", sess.Name))

	case strings.EqualFold(msg.Text, CommandWho):
		d.sender.ReplyTo(sess, strings.Join(d.sessions.Names(), ", "))

	case strings.EqualFold(msg.Text, TokenNorth):
		d.rooms.GoNorth(sess)

	case strings.EqualFold(msg.Text, TokenSouth):
		d.rooms.GoSouth(sess)

	case strings.EqualFold(msg.Text, TokenEast):
		d.rooms.GoEast(sess)

	case strings.EqualFold(msg.Text, TokenWest):
		d.rooms.GoWest(sess)

	case strings.EqualFold(msg.Text, TokenLook):
		d.rooms.Look(sess)

	default:
		if d.rooms.ProcessContextAction(sess, msg.Text) {
			return
		}
		d.sender.SendToRoom(sess, fmt.Sprintf("%s: %s", sess.Name, msg.Text))
	}
}
