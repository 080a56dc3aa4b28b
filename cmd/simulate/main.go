// Package main provides the command-line simulator that evaluates one loadout
// against a set of targets and prints the hourly rates.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/idlesim/internal/config"
	"github.com/cory-johannsen/idlesim/internal/export"
	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/loadout"
	"github.com/cory-johannsen/idlesim/internal/observability"
	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
	"github.com/cory-johannsen/idlesim/internal/sim/job"
	"github.com/cory-johannsen/idlesim/internal/sim/result"
	"github.com/cory-johannsen/idlesim/internal/sim/target"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/simulator.yaml", "path to configuration file")
	contentDir := flag.String("content", "", "content directory; overrides content.dir")
	loadoutPath := flag.String("loadout", "loadouts/melee.yaml", "path to loadout YAML")
	targetList := flag.String("targets", "all", `comma-separated target ids, or "all"`)
	xlsxPath := flag.String("xlsx", "", "write results to this spreadsheet")
	mode := flag.String("mode", "", "aggregation mode: auto, montecarlo or analytical")
	trials := flag.Int("trials", 0, "Monte Carlo encounters per stage; overrides simulation.trials")
	seed := flag.Uint64("seed", 0, "random seed; overrides simulation.seed")
	sequential := flag.Bool("sequential", false, "evaluate targets one by one on a single goroutine instead of the worker pool")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *contentDir != "" {
		cfg.Content.Dir = *contentDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	reg, err := gamedata.LoadDirectory(cfg.Content.Dir)
	if err != nil {
		logger.Fatal("loading content", zap.String("dir", cfg.Content.Dir), zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("monsters", len(reg.MonsterIDs())),
		zap.Int("dungeons", len(reg.DungeonIDs())),
		zap.Duration("elapsed", time.Since(start)),
	)

	lc, err := loadout.Load(*loadoutPath)
	if err != nil {
		logger.Fatal("loading loadout", zap.String("path", *loadoutPath), zap.Error(err))
	}
	var provider loadout.Provider = loadout.StaticProvider{Config: lc}
	snap, err := loadout.Freeze(provider.CurrentLoadout(), reg)
	if err != nil {
		logger.Fatal("resolving loadout", zap.String("path", *loadoutPath), zap.Error(err))
	}

	budget := aggregate.BudgetFromConfig(cfg.Simulation)
	if *mode != "" {
		budget.Mode = aggregate.Mode(*mode)
	}
	if *trials > 0 {
		budget.Trials = *trials
	}
	if *seed != 0 {
		budget.Seed = *seed
	}

	j := job.Job{Scope: "cli", Mode: job.ModeAll, Snapshot: snap, Budget: budget}
	if *targetList != "all" {
		j.Mode = job.ModeSelected
		seen := make(map[string]bool)
		for _, id := range strings.Split(*targetList, ",") {
			if id = strings.TrimSpace(id); id != "" && !seen[id] {
				seen[id] = true
				j.Targets = append(j.Targets, id)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var out outcome
	if *sequential {
		ids := j.Targets
		if j.Mode == job.ModeAll {
			ids = append(reg.MonsterIDs(), reg.DungeonIDs()...)
		}
		out, err = runSequential(ctx, reg, snap, ids, budget, logger)
	} else {
		out, err = runScheduled(ctx, job.OptionsFromConfig(cfg), reg, j, logger)
	}
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	if err := export.WriteTable(os.Stdout, out.results, out.rollup, out.failed); err != nil {
		logger.Fatal("writing table", zap.Error(err))
	}
	if *xlsxPath != "" {
		if err := export.SaveXLSX(*xlsxPath, out.results, out.rollup); err != nil {
			logger.Fatal("writing spreadsheet", zap.String("path", *xlsxPath), zap.Error(err))
		}
		logger.Info("spreadsheet written", zap.String("path", *xlsxPath))
	}

	logger.Info("simulation complete",
		zap.Int("results", len(out.results)),
		zap.Int("failed", len(out.failed)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

type outcome struct {
	results []aggregate.Result
	rollup  *aggregate.Result
	failed  map[string]string
}

// runScheduled submits j to a private scheduler, waits until the job
// completes or ctx is cancelled, and reads the results back from the
// scheduler's result store.
func runScheduled(ctx context.Context, opts job.Options, reg *gamedata.Registry, j job.Job, logger *zap.Logger) (outcome, error) {
	store := result.NewStore()
	sched := job.NewScheduler(opts, reg, store, logger)
	schedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := sched.Start(schedCtx); err != nil {
			logger.Error("scheduler stopped", zap.Error(err))
		}
	}()

	h, err := sched.Submit(ctx, j)
	if err != nil {
		return outcome{}, err
	}
	logger.Info("job started",
		zap.String("job_id", h.ID()),
		zap.Int("targets", len(h.Targets())),
		zap.Uint64("seed", h.Seed()),
	)

	var (
		mu       sync.Mutex
		failed   = make(map[string]string)
		complete = make(chan struct{})
	)
	h.OnProgress(func(p job.Progress) {
		if p.Processed == p.Total {
			logger.Debug("target evaluated", zap.String("target_id", p.TargetID))
		}
	})
	h.OnError(func(m job.JobError) {
		if m.TargetID == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		failed[m.TargetID] = m.Reason
	})
	h.OnComplete(func(job.JobComplete) { close(complete) })

	select {
	case <-complete:
	case <-ctx.Done():
		if err := sched.Cancel(h.ID()); err != nil {
			logger.Warn("cancelling job", zap.Error(err))
		}
		return outcome{}, fmt.Errorf("job %s: %w", h.ID(), ctx.Err())
	}

	mu.Lock()
	defer mu.Unlock()
	out := outcome{failed: failed}
	stored := make(map[string]aggregate.Result)
	for _, rec := range store.All(h.Scope()) {
		stored[rec.TargetID] = rec.Result
	}
	for _, id := range h.Targets() {
		if r, ok := stored[id]; ok {
			out.results = append(out.results, r)
		}
	}
	if r, ok := store.Rollup(h.Scope()); ok {
		out.rollup = &r
	}
	return out, nil
}

// runSequential evaluates ids one after another on the calling goroutine.
// Unresolvable ids are reported as failures; a zero seed is replaced by a
// random one.
func runSequential(ctx context.Context, reg *gamedata.Registry, snap *loadout.Snapshot, ids []string, b aggregate.Budget, logger *zap.Logger) (outcome, error) {
	if err := b.Validate(); err != nil {
		return outcome{}, err
	}
	if b.Seed == 0 {
		b.Seed = rand.Uint64() | 1
	}
	targets, errs := target.ResolveAll(reg, ids)
	out := outcome{failed: make(map[string]string, len(errs))}
	for id, err := range errs {
		out.failed[id] = err.Error()
	}
	logger.Info("sequential run started",
		zap.Int("targets", len(targets)),
		zap.Int("unresolved", len(errs)),
		zap.Uint64("seed", b.Seed),
	)

	results, err := aggregate.Run(ctx, aggregate.NewPlayer(snap), targets, b, func(id string, processed, total int) {
		if processed == total {
			logger.Debug("target evaluated", zap.String("target_id", id))
		}
	})
	if err != nil {
		return outcome{}, err
	}
	out.results = results
	if len(results) > 1 {
		r := aggregate.Rollup(results)
		out.rollup = &r
	}
	return out, nil
}
