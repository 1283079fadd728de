package ppn

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL PPN repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const ppnColumns = `
	id, name, city, address, zone, status,
	latitude, longitude,
	contact_email, contact_phone, contact_manager,
	services, created_at, updated_at
`

// Get retrieves a PPN by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*PPN, error) {
	query := `SELECT ` + ppnColumns + ` FROM ppns WHERE id = $1`

	var p PPN
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.City,
		&p.Address,
		&p.Zone,
		&p.Status,
		&p.Coordinate.Lat,
		&p.Coordinate.Lon,
		&p.Contact.Email,
		&p.Contact.Phone,
		&p.Contact.Manager,
		&p.Services,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &p, nil
}

// List retrieves all PPNs ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*PPN, error) {
	query := `SELECT ` + ppnColumns + ` FROM ppns ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ppns []*PPN
	for rows.Next() {
		var p PPN
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.City,
			&p.Address,
			&p.Zone,
			&p.Status,
			&p.Coordinate.Lat,
			&p.Coordinate.Lon,
			&p.Contact.Email,
			&p.Contact.Phone,
			&p.Contact.Manager,
			&p.Services,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		ppns = append(ppns, &p)
	}

	return ppns, rows.Err()
}
