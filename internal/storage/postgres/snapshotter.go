package postgres

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/telegramsouls/server/internal/game/session"
)

// snapshotWriteTimeout bounds one snapshot write, including the final write
// performed during shutdown.
const snapshotWriteTimeout = 10 * time.Second

// Snapshotter periodically persists the full session table so that active
// players survive a server restart. It reads storage snapshots from its own
// goroutine, which is exactly the concurrent-read case the session Storage
// locks against.
type Snapshotter struct {
	repo     *SessionRepository
	sessions *session.Storage
	interval time.Duration
	logger   *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

// NewSnapshotter creates a Snapshotter. Call Start to begin the periodic
// writes.
//
// Precondition: repo, sessions, and logger must be non-nil; interval must be
// positive.
func NewSnapshotter(repo *SessionRepository, sessions *session.Storage, interval time.Duration, logger *zap.Logger) *Snapshotter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Snapshotter{
		repo:     repo,
		sessions: sessions,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start blocks, writing a snapshot every interval, until Stop is called.
// A final snapshot is written on the way out so shutdown never loses more
// than the in-flight message.
func (s *Snapshotter) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("snapshotter already started")
	}
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("snapshotter started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-s.ctx.Done():
			s.write(context.Background())
			s.logger.Info("snapshotter stopped")
			return nil
		case <-ticker.C:
			s.write(s.ctx)
		}
	}
}

// Stop signals the loop to exit after a final snapshot and waits for it.
// Idempotent.
func (s *Snapshotter) Stop() {
	s.cancel()
	if s.started.Load() {
		<-s.done
	}
}

func (s *Snapshotter) write(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, snapshotWriteTimeout)
	defer cancel()

	snapshot := s.sessions.Sessions()
	if err := s.repo.ReplaceAll(ctx, snapshot); err != nil {
		s.logger.Error("writing session snapshot",
			zap.Int("sessions", len(snapshot)),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("session snapshot written", zap.Int("sessions", len(snapshot)))
}
