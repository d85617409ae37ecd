// Command gameserver hosts the hexfront turn-based strategy engine behind
// an HTTP API.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/arvale/hexfront/internal/api"
	"github.com/arvale/hexfront/internal/config"
	"github.com/arvale/hexfront/internal/game"
	"github.com/arvale/hexfront/internal/persistence"
	"github.com/arvale/hexfront/internal/projection"
	"github.com/arvale/hexfront/internal/world"
)

func main() {
	if err := config.Load("."); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if config.GetString("logLevel") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	dbPath := config.GetString("db.path")
	os.MkdirAll("data", 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	idemTTL := time.Duration(config.GetInt("idempotency.ttlMinutes")) * time.Minute
	idem := db.Idempotency(idemTTL)
	engine := game.NewEngine(idem, projection.New())

	// Periodic housekeeping for expired idempotency records.
	if idemTTL > 0 {
		go func() {
			for {
				time.Sleep(idemTTL)
				if err := idem.Prune(); err != nil {
					slog.Error("idempotency prune failed", "error", err)
				}
			}
		}()
	}

	// Restore persisted games; clear any guard a crashed action left set.
	ids, err := db.GameIDs()
	if err != nil {
		slog.Error("failed to list games", "error", err)
		os.Exit(1)
	}
	for _, id := range ids {
		g, err := db.LoadGame(id)
		if err != nil {
			slog.Error("failed to load game", "game", id, "error", err)
			os.Exit(1)
		}
		if g.TurnInProgress {
			slog.Warn("clearing stale turn guard", "game", id)
			g.TurnInProgress = false
			if err := db.ReleaseGuard(id); err != nil {
				slog.Error("failed to release guard", "game", id, "error", err)
			}
		}
		engine.Add(g)
	}

	mapCfg := world.GenConfig{
		Width:       config.GetInt("map.width"),
		Height:      config.GetInt("map.height"),
		Seed:        config.GetInt64("map.seed"),
		SeaLevel:    world.DefaultGenConfig().SeaLevel,
		MountainLvl: world.DefaultGenConfig().MountainLvl,
	}

	// Seed a demo game on first run so the API has something to serve.
	if len(ids) == 0 {
		id := game.GameID(uuid.New().String())
		g, err := game.NewMatch(id, world.Generate(mapCfg), []game.ParticipantSpec{
			{Name: "Aria", Kind: game.KindHuman},
			{Name: "Bram", Kind: game.KindAI},
		})
		if err != nil {
			slog.Error("failed to create demo game", "error", err)
			os.Exit(1)
		}
		if err := db.SaveGame(g); err != nil {
			slog.Error("failed to save demo game", "error", err)
			os.Exit(1)
		}
		engine.Add(g)
		slog.Info("demo game created", "game", g.ID, "map", g.Map.String())
	}

	hub := api.NewHub()
	engine.SetOnApplied(func(g *game.Game, req game.ActionRequest, res game.ActionResult) {
		hub.Broadcast(g.ID, res.State)
	})

	adminKey := config.GetString("server.adminKey")
	if adminKey == "" {
		slog.Warn("server.adminKey not set, game creation endpoint disabled")
	}

	server := &api.Server{
		Engine:    engine,
		DB:        db,
		Hub:       hub,
		Port:      config.GetInt("server.port"),
		AdminKey:  adminKey,
		MapConfig: mapCfg,
	}
	server.Start(config.GetInt("ratelimit.actionsPerMinute"))

	slog.Info("hexfront ready", "games", engine.GameCount(), "port", server.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
}
