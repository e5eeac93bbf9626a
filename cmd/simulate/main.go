package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-backend/internal/config"
	"github.com/hackgods/clinic-backend/internal/db"
)

// simulate hammers the two hot shared resources: practitioner slots (double
// booking) and product stock (concurrent debits). Run it against a seeded
// database and watch the conflict counters.

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	SlotHotness   int // how many workers share one practitioner+time
	PatientLimit  int
	ProductLimit  int
	PostgresDSN   string
}

type DataPool struct {
	Patients      []uuid.UUID
	Practitioners []uuid.UUID
	Products      []uuid.UUID
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]

	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	sim := SimConfig{
		APIBaseURL:   getEnv("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:     getDurationEnv("SIM_DURATION", 30*time.Second),
		Workers:      getIntEnv("SIM_WORKERS", 20),
		SlotHotness:  getIntEnv("SIM_SLOT_HOTNESS", 5),
		PatientLimit: getIntEnv("SIM_PATIENT_LIMIT", 500),
		ProductLimit: getIntEnv("SIM_PRODUCT_LIMIT", 50),
		PostgresDSN:  cfg.PostgresDSN,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, sim.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	data, err := loadDataPool(context.Background(), pool, sim)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded %d patients, %d practitioners, %d products",
		len(data.Patients), len(data.Practitioners), len(data.Products))

	var booking, debit OperationMetrics
	client := &http.Client{Timeout: 10 * time.Second}

	runCtx, stop := context.WithTimeout(context.Background(), sim.Duration)
	defer stop()

	// All workers in one hotness group fight over the same slot.
	baseSlot := time.Now().Add(48 * time.Hour).Truncate(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < sim.Workers; i++ {
		wg.Add(1)
		slot := baseSlot.Add(time.Duration(i/sim.SlotHotness) * 30 * time.Minute)
		practitioner := data.Practitioners[(i/sim.SlotHotness)%len(data.Practitioners)]

		go func(slot time.Time, practitioner uuid.UUID) {
			defer wg.Done()
			for runCtx.Err() == nil {
				if rand.Float64() < 0.7 {
					bookOnce(client, sim, data, practitioner, slot, &booking)
				} else {
					debitOnce(client, sim, data, &debit)
				}
			}
		}(slot, practitioner)
	}

	wg.Wait()

	report("booking", &booking)
	report("stock-debit", &debit)
}

func bookOnce(client *http.Client, sim SimConfig, data *DataPool, practitioner uuid.UUID, slot time.Time, m *OperationMetrics) {
	patient := data.Patients[rand.Intn(len(data.Patients))]

	body, _ := json.Marshal(map[string]any{
		"patient_id":      patient.String(),
		"practitioner_id": practitioner.String(),
		"scheduled_at":    slot.Format(time.RFC3339),
		"service_type":    "consultation",
		"reason":          "simulated load",
	})

	start := time.Now()
	resp, err := client.Post(sim.APIBaseURL+"/appointments", "application/json", bytes.NewReader(body))
	if err != nil {
		m.Record(time.Since(start), 0)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	m.Record(time.Since(start), resp.StatusCode)
}

func debitOnce(client *http.Client, sim SimConfig, data *DataPool, m *OperationMetrics) {
	product := data.Products[rand.Intn(len(data.Products))]

	body, _ := json.Marshal(map[string]any{
		"delta": -(1 + rand.Intn(3)),
	})

	start := time.Now()
	resp, err := client.Post(fmt.Sprintf("%s/products/%s/adjust", sim.APIBaseURL, product), "application/json", bytes.NewReader(body))
	if err != nil {
		m.Record(time.Since(start), 0)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	m.Record(time.Since(start), resp.StatusCode)
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, sim SimConfig) (*DataPool, error) {
	data := &DataPool{}

	if err := collectIDs(ctx, pool, `SELECT id FROM patients LIMIT $1`, sim.PatientLimit, &data.Patients); err != nil {
		return nil, err
	}
	if err := collectIDs(ctx, pool, `SELECT id FROM practitioners WHERE active LIMIT $1`, 100, &data.Practitioners); err != nil {
		return nil, err
	}
	if err := collectIDs(ctx, pool, `SELECT id FROM products WHERE stock > 0 LIMIT $1`, sim.ProductLimit, &data.Products); err != nil {
		return nil, err
	}

	if len(data.Patients) == 0 || len(data.Practitioners) == 0 || len(data.Products) == 0 {
		return nil, fmt.Errorf("database is not seeded, run cmd/seed first")
	}

	return data, nil
}

func collectIDs(ctx context.Context, pool *pgxpool.Pool, query string, limit int, out *[]uuid.UUID) error {
	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		*out = append(*out, id)
	}
	return rows.Err()
}

func report(name string, m *OperationMetrics) {
	avg, p50, p95 := m.Stats()
	log.Printf("%s: total=%d success=%d conflict=%d error=%d avg=%s p50=%s p95=%s",
		name, m.Total, m.Success, m.Conflict, m.Error, avg, p50, p95)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
