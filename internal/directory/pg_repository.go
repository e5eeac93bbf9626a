package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-backend/internal/db"
)

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func (d *PgDirectory) q(ctx context.Context) db.Querier {
	return db.QuerierFrom(ctx, d.pool)
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var species *string

	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&species,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Species = species
	return &p, nil
}

func (d *PgDirectory) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := d.q(ctx).QueryRow(ctx, `
		SELECT id, owner_id, name, species, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (d *PgDirectory) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	var c Client
	var email *string

	err := d.q(ctx).QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id).Scan(
		&c.ID,
		&c.Name,
		&email,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	c.Email = email
	return &c, nil
}

func (d *PgDirectory) GetPractitioner(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	var p Practitioner
	var specialty *string

	err := d.q(ctx).QueryRow(ctx, `
		SELECT id, name, specialty, active, created_at, updated_at
		FROM practitioners
		WHERE id = $1
	`, id).Scan(
		&p.ID,
		&p.Name,
		&specialty,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPractitionerNotFound
		}
		return nil, err
	}

	p.Specialty = specialty
	return &p, nil
}
