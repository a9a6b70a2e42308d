package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación del puerto LocationRepository sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

const locationSelect = `SELECT id, name, address, is_active, created_at, updated_at FROM locations`

func scanLocation(row pgx.Row) (*entity.Location, error) {
	var l entity.Location
	if err := row.Scan(&l.ID, &l.Name, &l.Address, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// Create persiste una nueva ubicación.
func (r *LocationRepo) Create(ctx context.Context, location *entity.Location) error {
	query := `
		INSERT INTO locations (id, name, address, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		location.ID, location.Name, location.Address, location.IsActive, location.CreatedAt, location.UpdatedAt,
	)
	if err != nil {
		return translateError(fmt.Errorf("insert location: %w", err))
	}
	return nil
}

func (r *LocationRepo) getOne(ctx context.Context, op, suffix, id string) (*entity.Location, error) {
	l, err := scanLocation(r.q.QueryRow(ctx, locationSelect+` WHERE id = $1`+suffix, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(fmt.Errorf("%s: %w", op, err))
	}
	return l, nil
}

// GetByID obtiene una ubicación por ID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	return r.getOne(ctx, "get location", "", id)
}

// GetForUpdate obtiene la ubicación con bloqueo exclusivo.
func (r *LocationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Location, error) {
	return r.getOne(ctx, "get location for update", " FOR UPDATE", id)
}

// GetForShare obtiene la ubicación con bloqueo compartido (FOR SHARE).
func (r *LocationRepo) GetForShare(ctx context.Context, id string) (*entity.Location, error) {
	return r.getOne(ctx, "get location for share", " FOR SHARE", id)
}

// Update actualiza nombre, dirección y estado.
func (r *LocationRepo) Update(ctx context.Context, location *entity.Location) error {
	query := `UPDATE locations SET name = $2, address = $3, is_active = $4, updated_at = $5 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, location.ID, location.Name, location.Address, location.IsActive, location.UpdatedAt)
	if err != nil {
		return translateError(fmt.Errorf("update location: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, location.ID)
	}
	return nil
}

// List lista ubicaciones ordenadas por nombre.
func (r *LocationRepo) List(ctx context.Context, limit, offset int) ([]*entity.Location, error) {
	rows, err := r.q.Query(ctx, locationSelect+` ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, translateError(fmt.Errorf("list locations: %w", err))
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
