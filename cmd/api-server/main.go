package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/clinic-backend/internal/api"
	"github.com/hackgods/clinic-backend/internal/billing"
	"github.com/hackgods/clinic-backend/internal/clinical"
	"github.com/hackgods/clinic-backend/internal/config"
	"github.com/hackgods/clinic-backend/internal/db"
	"github.com/hackgods/clinic-backend/internal/directory"
	"github.com/hackgods/clinic-backend/internal/events"
	"github.com/hackgods/clinic-backend/internal/inventory"
	redisclient "github.com/hackgods/clinic-backend/internal/redis"
	"github.com/hackgods/clinic-backend/internal/request"
	"github.com/hackgods/clinic-backend/internal/scheduling"
)

const version = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s min_lead_time=%s", cfg.Env, cfg.HTTPPort, cfg.MinLeadTime)

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

	// Connect Redis
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

	// Lifecycle event publisher (optional)
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
	invoices := billing.NewFactory(billing.NewPgRepository(pgPool), publisher)
	scheduler := scheduling.NewScheduler(scheduling.NewPgRepository(pgPool), locker, publisher)
	workflow := request.NewWorkflow(request.NewPgRepository(pgPool), dir, scheduler, ledger, txm, publisher, cfg.MinLeadTime)
	saga := clinical.NewSaga(clinical.NewPgRepository(pgPool), ledger, invoices, scheduler, dir, txm, publisher)

	router := api.NewRouter(api.RouterConfig{
		Scheduler: scheduler,
		Workflow:  workflow,
		Saga:      saga,
		Invoices:  invoices,
		Ledger:    ledger,
		PgPool:    pgPool,
		Redis:     rdb,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
