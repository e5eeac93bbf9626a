package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/clinic-backend/internal/config"
	"github.com/hackgods/clinic-backend/internal/db"
	"github.com/hackgods/clinic-backend/internal/directory"
	"github.com/hackgods/clinic-backend/internal/events"
	"github.com/hackgods/clinic-backend/internal/inventory"
	redisclient "github.com/hackgods/clinic-backend/internal/redis"
	"github.com/hackgods/clinic-backend/internal/request"
	"github.com/hackgods/clinic-backend/internal/scheduling"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("request-reaper starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running request reaper in env=%s interval=%s", cfg.Env, cfg.WorkerInterval)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka connection error: %v", err)
		}
		publisher = kp
		log.Println("connected to Kafka")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("error closing publisher: %v", err)
		}
	}()

	txm := db.NewTxManager(pgPool)
	locker := redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL)
	dir := directory.NewPgDirectory(pgPool)
	ledger := inventory.NewLedger(inventory.NewPgRepository(pgPool), txm)
	scheduler := scheduling.NewScheduler(scheduling.NewPgRepository(pgPool), locker, publisher)
	workflow := request.NewWorkflow(request.NewPgRepository(pgPool), dir, scheduler, ledger, txm, publisher, cfg.MinLeadTime)

	// Run once at startup
	runOnce(rootCtx, workflow)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping request reaper")
			return
		case <-ticker.C:
			runOnce(rootCtx, workflow)
		}
	}
}

func runOnce(ctx context.Context, workflow *request.Workflow) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	cancelled, err := workflow.ExpireOverduePending(runCtx)
	if err != nil {
		log.Printf("reaper run error: %v", err)
		return
	}
	log.Printf("reaper run complete: cancelled=%d in %s", cancelled, time.Since(start))
}
