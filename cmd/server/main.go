// Command server runs the sentinel uptime-monitoring service: the HTTP
// API (public + admin), the per-minute scheduler tick, and the daily
// rollup job, all against one shared store.
//
// Grounded on the teacher's cmd/dashboard/main.go: load config, open the
// store, build the router, and run background loops alongside
// http.ListenAndServe under a context cancelled by SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftwatch/sentinel/internal/api"
	"github.com/driftwatch/sentinel/internal/config"
	"github.com/driftwatch/sentinel/internal/db"
	"github.com/driftwatch/sentinel/internal/logging"
	"github.com/driftwatch/sentinel/internal/notify"
	"github.com/driftwatch/sentinel/internal/rollup"
	"github.com/driftwatch/sentinel/internal/scheduler"
	"github.com/driftwatch/sentinel/internal/snapshot"
	"github.com/driftwatch/sentinel/internal/statemachine"
	"github.com/driftwatch/sentinel/internal/timeutil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := db.NewStore(db.DBConfig{Type: cfg.DBDriver, Path: cfg.DBPath, URL: cfg.DBURL})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifyLogger := logging.New("notify")
	notifyService := notify.NewService(store, notifyLogger)
	notifyService.Start()
	defer notifyService.Stop()

	snapshotCache := snapshot.NewCache(store, logging.New("snapshot"))

	sched := &scheduler.Scheduler{
		Store:        store,
		Notify:       notifyService,
		Snapshot:     snapshotCache,
		Logger:       logging.New("scheduler"),
		Thresholds:   statemachine.Thresholds{F: cfg.FlapF, S: cfg.FlapS},
		Concurrency:  cfg.ProbeConcurrency,
		LeaseSeconds: int64(cfg.SchedulerLeaseSeconds),
		HolderPrefix: "scheduler",
	}
	rollupLogger := logging.New("rollup")

	go runSchedulerLoop(ctx, sched)
	go runRollupLoop(ctx, store, rollupLogger, int64(cfg.RollupLeaseSeconds))

	router := api.NewRouter(api.Deps{
		Store:    store,
		Snapshot: snapshotCache,
		Notify:   notifyService,
		Config:   &cfg,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverLogger := logging.New("api")
	go func() {
		serverLogger.Printf("listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	serverLogger.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serverLogger.Printf("shutdown: %v", err)
	}
}

// runSchedulerLoop fires the scheduler tick roughly every minute (spec
// §4.4): logical time anchors to the current minute regardless of small
// drift in the ticker, and overlapping/duplicate ticks are made safe by
// the lease inside Tick itself.
func runSchedulerLoop(ctx context.Context, sched *scheduler.Scheduler) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	tick := func() {
		now := timeutil.Now()
		tickCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
		defer cancel()
		if err := sched.Tick(tickCtx, now); err != nil {
			sched.Logger.Printf("tick failed: %v", err)
		}
	}

	tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// runRollupLoop fires the daily rollup once per UTC day boundary (spec
// §4.6's "cron 0 0 * * *"), computing the day that just ended. It wakes
// every minute to check whether the boundary has been crossed, tolerating
// process restarts: a missed boundary is caught on the next wake since
// Run recomputes whatever "yesterday" is at call time and the lease
// guards against double-processing a day already done concurrently.
func runRollupLoop(ctx context.Context, store *db.Store, logger *log.Logger, leaseSeconds int64) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	var lastDay int64 = -1
	runIfNewDay := func() {
		now := timeutil.Now()
		dayStart, _ := timeutil.PreviousUTCDay(now)
		if dayStart == lastDay {
			return
		}
		if err := rollup.Run(store, logger, "rollup", now, dayStart, leaseSeconds); err != nil {
			logger.Printf("rollup run failed for day %d: %v", dayStart, err)
			return
		}
		lastDay = dayStart
	}

	runIfNewDay()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runIfNewDay()
		}
	}
}
