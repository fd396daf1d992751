package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

// SitioRepository persists barangay zones.
type SitioRepository interface {
	Create(ctx context.Context, sitio *domain.Sitio) error
	List(ctx context.Context) ([]domain.Sitio, error)
}

type sitioRepository struct {
	pool *pgxpool.Pool
}

// NewSitioRepository constructs repository.
func NewSitioRepository(pool *pgxpool.Pool) SitioRepository {
	return &sitioRepository{pool: pool}
}

func (r *sitioRepository) Create(ctx context.Context, sitio *domain.Sitio) error {
	const query = `INSERT INTO sitios (name) VALUES ($1) RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query, sitio.Name).Scan(&sitio.ID, &sitio.CreatedAt)
}

func (r *sitioRepository) List(ctx context.Context) ([]domain.Sitio, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name, created_at FROM sitios ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Sitio{}
	for rows.Next() {
		var sitio domain.Sitio
		if err := rows.Scan(&sitio.ID, &sitio.Name, &sitio.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sitio)
	}
	return result, rows.Err()
}
