package telegram

import (
	"context"
	"time"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"

	"github.com/telegramsouls/server/internal/game/session"
)

// sendTimeout bounds a single bot API send call.
const sendTimeout = 10 * time.Second

// Sender delivers outbound text through the bot API. Every player chats with
// the bot privately, so a session's numeric id doubles as its chat id; room
// broadcasts fan out to one send per occupant. Every outbound message carries
// the movement reply keyboard.
type Sender struct {
	bot      *telego.Bot
	sessions *session.Storage
	keyboard *telego.ReplyKeyboardMarkup
	logger   *zap.Logger
}

// NewSender creates a Sender.
//
// Precondition: bot, sessions, and logger must be non-nil.
func NewSender(bot *telego.Bot, sessions *session.Storage, logger *zap.Logger) *Sender {
	return &Sender{
		bot:      bot,
		sessions: sessions,
		keyboard: MovementKeyboard(),
		logger:   logger,
	}
}

// SendToRoom broadcasts text to every session occupying the sender's current
// room, including the originating session.
func (s *Sender) SendToRoom(sess *session.Session, text string) {
	for _, member := range s.sessions.SessionsInRoom(sess.RoomID) {
		s.send(member.ID, text, 0)
	}
}

// ReplyTo sends text to the session's own chat as a threaded reply to the
// player's last processed message.
func (s *Sender) ReplyTo(sess *session.Session, text string) {
	s.send(sess.ID, text, sess.LastMessageID)
}

// BroadcastToRoom delivers text to every occupant of roomID. Used by zone
// scripts, which address rooms by id rather than through a session.
func (s *Sender) BroadcastToRoom(roomID, text string) {
	for _, member := range s.sessions.SessionsInRoom(roomID) {
		s.send(member.ID, text, 0)
	}
}

// send performs one bot API call. Delivery failures are logged, never
// propagated: a blocked recipient must not break dispatch for the room.
func (s *Sender) send(chatID int64, text string, replyTo int64) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	params := &telego.SendMessageParams{
		ChatID:      telego.ChatID{ID: chatID},
		Text:        text,
		ReplyMarkup: s.keyboard,
	}
	if replyTo != 0 {
		params.ReplyParameters = &telego.ReplyParameters{
			MessageID: int(replyTo),
		}
	}

	if _, err := s.bot.SendMessage(ctx, params); err != nil {
		s.logger.Warn("sending message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
