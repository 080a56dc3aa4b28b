// Package main provides the simulation server binary that accepts simulation
// jobs over a websocket and streams their progress and results.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/idlesim/internal/config"
	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/loadout"
	"github.com/cory-johannsen/idlesim/internal/observability"
	"github.com/cory-johannsen/idlesim/internal/server"
	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
	"github.com/cory-johannsen/idlesim/internal/sim/job"
	"github.com/cory-johannsen/idlesim/internal/sim/result"
	"github.com/cory-johannsen/idlesim/internal/transport/ws"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/simulator.yaml", "path to configuration file")
	loadoutPath := flag.String("loadout", "loadouts/melee.yaml", "initial loadout YAML")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting simulation server",
		zap.String("addr", cfg.Server.Addr()),
	)

	contentStart := time.Now()
	reg, err := gamedata.LoadDirectory(cfg.Content.Dir)
	if err != nil {
		logger.Fatal("loading content", zap.String("dir", cfg.Content.Dir), zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("monsters", len(reg.MonsterIDs())),
		zap.Int("dungeons", len(reg.DungeonIDs())),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	initial, err := loadout.Load(*loadoutPath)
	if err != nil {
		logger.Fatal("loading loadout", zap.String("path", *loadoutPath), zap.Error(err))
	}
	if _, err := loadout.Freeze(initial, reg); err != nil {
		logger.Fatal("resolving loadout", zap.String("path", *loadoutPath), zap.Error(err))
	}

	store := result.NewStore()
	sched := job.NewScheduler(job.OptionsFromConfig(cfg), reg, store, logger)
	wsSrv := ws.NewServer(sched, store, reg, loadout.NewCurrent(initial), aggregate.BudgetFromConfig(cfg.Simulation), logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsSrv)

	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)
	lifecycle.Add("scheduler", sched)
	lifecycle.Add("http", server.NewHTTPService(cfg.Server.Addr(), mux))

	logger.Info("simulation server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
