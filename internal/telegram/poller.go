// Package telegram implements the transport collaborators around the core:
// a long-polling poller that feeds the message queue and a sender that
// delivers room broadcasts and addressed replies through the bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"

	"github.com/telegramsouls/server/internal/game/message"
	"github.com/telegramsouls/server/internal/game/queue"
)

// Poller long-polls the bot API and enqueues every text message it receives.
// Rate limiting and retry/backoff against the remote API are handled inside
// telego's long-polling loop.
type Poller struct {
	bot     *telego.Bot
	queue   *queue.Queue
	timeout time.Duration
	logger  *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

// NewPoller creates a Poller. Call Start to begin polling.
//
// Precondition: bot, q, and logger must be non-nil; timeout must be positive.
func NewPoller(bot *telego.Bot, q *queue.Queue, timeout time.Duration, logger *zap.Logger) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		bot:     bot,
		queue:   q,
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start blocks, converting incoming updates into internal messages and
// enqueuing them, until Stop is called.
//
// Postcondition: Returns nil after a clean stop, or an error if polling
// could not be established or the poller was already started.
func (p *Poller) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return errors.New("poller already started")
	}
	defer close(p.done)

	updates, err := p.bot.UpdatesViaLongPolling(p.ctx, &telego.GetUpdatesParams{
		Timeout:        int(p.timeout.Seconds()),
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("starting long polling: %w", err)
	}

	p.logger.Info("poller started", zap.Duration("timeout", p.timeout))
	for update := range updates {
		msg, ok := MessageFromUpdate(update)
		if !ok {
			continue
		}
		p.queue.Enqueue(msg)
		p.logger.Debug("message enqueued",
			zap.Int64("sender_id", msg.SenderID),
			zap.Int64("message_id", msg.MessageID),
		)
	}
	p.logger.Info("poller stopped")
	return nil
}

// Stop cancels long polling. Idempotent; in-flight enqueues complete.
func (p *Poller) Stop() {
	p.cancel()
	if p.started.Load() {
		<-p.done
	}
}

// MessageFromUpdate converts a bot API update into the internal message
// shape. Updates without a message or an identified sender are skipped.
//
// Postcondition: Returns (message, true) for convertible updates, or
// (zero, false) otherwise.
func MessageFromUpdate(update telego.Update) (message.Message, bool) {
	if update.Message == nil || update.Message.From == nil {
		return message.Message{}, false
	}
	from := update.Message.From
	return message.Message{
		SenderID:   from.ID,
		SenderName: displayName(from),
		Text:       update.Message.Text,
		MessageID:  int64(update.Message.MessageID),
	}, true
}

// displayName prefers the public username and falls back to the first name.
func displayName(u *telego.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}
