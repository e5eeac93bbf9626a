package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-backend/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedPractitioners(context.Background(), pool, 30); err != nil {
		log.Fatalf("seed practitioners: %v", err)
	}
	clientIDs, err := seedClients(context.Background(), pool, 500)
	if err != nil {
		log.Fatalf("seed clients: %v", err)
	}
	if err := seedPatients(context.Background(), pool, clientIDs, 1500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedProducts(context.Background(), pool, 200); err != nil {
		log.Fatalf("seed products: %v", err)
	}
	if err := seedCatalogServices(context.Background(), pool); err != nil {
		log.Fatalf("seed catalog services: %v", err)
	}

	log.Println("seed complete")
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d practitioners", count)

	specialties := []string{
		"General Practice",
		"Surgery",
		"Dermatology",
		"Dentistry",
		"Cardiology",
		"Ophthalmology",
		"Internal Medicine",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO practitioners (id, name, specialty, active, created_at, updated_at)
			VALUES ($1, $2, $3, true, now(), now())
		`, id, name, spec)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("practitioners seeded")
	return nil
}

func seedClients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d clients", count)

	ids := make([]uuid.UUID, 0, count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		email := gofakeit.Email()

		_, err := tx.Exec(ctx, `
			INSERT INTO clients (id, name, email, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, email)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("clients seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, owners []uuid.UUID, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	species := []string{"dog", "cat", "rabbit", "bird", "hamster"}

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			owner := owners[gofakeit.Number(0, len(owners)-1)]
			name := gofakeit.FirstName()
			sp := species[gofakeit.Number(0, len(species)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, owner_id, name, species, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, id, owner, name, sp)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d products", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.ProductName()
		stock := gofakeit.Number(0, 80)
		unitPrice := int64(gofakeit.Number(500, 250000))

		_, err := tx.Exec(ctx, `
			INSERT INTO products (id, name, stock, unit_price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, name, stock, unitPrice)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("products seeded")
	return nil
}

func seedCatalogServices(ctx context.Context, pool *pgxpool.Pool) error {
	services := []struct {
		name  string
		price int64
	}{
		{"General Consultation", 45000},
		{"Vaccination", 60000},
		{"Deworming", 35000},
		{"Dental Cleaning", 120000},
		{"Minor Surgery", 350000},
		{"Grooming", 40000},
		{"Laboratory Panel", 95000},
	}

	log.Printf("seeding %d catalog services", len(services))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range services {
		_, err := tx.Exec(ctx, `
			INSERT INTO catalog_services (id, name, base_price, active, created_at, updated_at)
			VALUES ($1, $2, $3, true, now(), now())
		`, uuid.New(), s.name, s.price)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("catalog services seeded")
	return nil
}
