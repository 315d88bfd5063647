// Package main provides the game server binary: Telegram transport, message
// queue, session storage, and the command dispatch loop, wired together
// explicitly at startup.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"

	"github.com/telegramsouls/server/internal/config"
	"github.com/telegramsouls/server/internal/dispatch"
	"github.com/telegramsouls/server/internal/game/queue"
	"github.com/telegramsouls/server/internal/game/room"
	"github.com/telegramsouls/server/internal/game/session"
	"github.com/telegramsouls/server/internal/game/world"
	"github.com/telegramsouls/server/internal/observability"
	"github.com/telegramsouls/server/internal/scripting"
	"github.com/telegramsouls/server/internal/server"
	"github.com/telegramsouls/server/internal/storage/postgres"
	"github.com/telegramsouls/server/internal/telegram"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	zonesDir := flag.String("zones", "content/zones", "path to zone YAML files directory")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Load world
	zoneStart := time.Now()
	zones, err := world.LoadZonesFromDir(*zonesDir)
	if err != nil {
		logger.Fatal("loading zones", zap.Error(err))
	}
	worldMgr, err := world.NewManager(zones)
	if err != nil {
		logger.Fatal("creating world manager", zap.Error(err))
	}
	if err := worldMgr.ValidateExits(); err != nil {
		logger.Fatal("validating world exits", zap.Error(err))
	}
	logger.Info("world loaded",
		zap.Int("zones", worldMgr.ZoneCount()),
		zap.Int("rooms", worldMgr.RoomCount()),
		zap.Duration("elapsed", time.Since(zoneStart)),
	)

	// Load zone context-action scripts
	scripts := scripting.NewManager(logger)
	defer scripts.Close()
	for _, zone := range worldMgr.AllZones() {
		if zone.ScriptDir == "" {
			continue
		}
		if err := scripts.LoadZone(zone.ID, zone.ScriptDir, zone.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading zone scripts", zap.String("zone", zone.ID), zap.Error(err))
		}
		logger.Info("zone scripts loaded", zap.String("zone", zone.ID))
	}

	// Core state: queue and session storage, owned for the process lifetime.
	msgQueue := queue.New()
	sessions := session.NewStorage(worldMgr.StartRoom())

	bot, err := telego.NewBot(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("creating bot", zap.Error(err))
	}

	sender := telegram.NewSender(bot, sessions, logger)
	scripts.Say = sender.BroadcastToRoom
	rooms := room.NewService(worldMgr, sessions, sender, scripts, logger)

	lifecycle := server.NewLifecycle(logger)

	// Optional persistence: restore previous sessions, then snapshot
	// periodically. Stops last so the final snapshot sees the final state.
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)

		repo := postgres.NewSessionRepository(pool.DB())
		restoreSessions(ctx, repo, sessions, worldMgr, logger)

		lifecycle.Add("snapshotter", postgres.NewSnapshotter(repo, sessions, cfg.Database.SnapshotInterval, logger))
	}

	dispatcher := dispatch.New(msgQueue, sessions, rooms, sender, logger)
	poller := telegram.NewPoller(bot, msgQueue, cfg.Telegram.PollTimeout, logger)

	// Shutdown runs in reverse: poller first (no new messages), then the
	// dispatcher (drains in-flight work), then the snapshotter.
	lifecycle.Add("dispatcher", dispatcher)
	lifecycle.Add("poller", poller)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("running server", zap.Error(err))
	}
}

// restoreSessions re-registers persisted sessions whose rooms still exist.
// Sessions bound to rooms removed from the world content are dropped with a
// warning rather than violating the live-room invariant.
func restoreSessions(ctx context.Context, repo *postgres.SessionRepository, sessions *session.Storage, worldMgr *world.Manager, logger *zap.Logger) {
	records, err := repo.LoadAll(ctx)
	if err != nil {
		logger.Error("loading persisted sessions", zap.Error(err))
		return
	}

	restorable := make([]session.Session, 0, len(records))
	for _, rec := range records {
		if _, ok := worldMgr.GetRoom(rec.RoomID); !ok {
			logger.Warn("dropping persisted session with unknown room",
				zap.Int64("session_id", rec.ID),
				zap.String("room_id", rec.RoomID),
			)
			continue
		}
		restorable = append(restorable, session.Session{
			ID:            rec.ID,
			Name:          rec.Name,
			RoomID:        rec.RoomID,
			LastMessageID: rec.LastMessageID,
		})
	}

	if err := sessions.Restore(restorable); err != nil {
		logger.Error("restoring sessions", zap.Error(err))
		return
	}
	logger.Info("sessions restored", zap.Int("count", len(restorable)))
}
