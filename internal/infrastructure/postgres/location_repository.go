package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/jmoreno/kardex-api/internal/domain"
	"github.com/jmoreno/kardex-api/internal/domain/entity"
	"github.com/jmoreno/kardex-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación de LocationRepository sobre PostgreSQL (usable con pool o tx).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de ubicaciones. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByName obtiene una ubicación por nombre.
func (r *LocationRepo) GetByName(name string) (*entity.Location, error) {
	query := `
		SELECT name, quantity, created_at, updated_at
		FROM locations WHERE name = $1`
	var l entity.Location
	err := r.q.QueryRow(context.Background(), query, name).Scan(
		&l.Name, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// GetForUpdate obtiene y bloquea (SELECT FOR UPDATE) las filas existentes entre
// names, en orden de nombre para que dos operaciones concurrentes sobre el mismo
// conjunto adquieran los locks en el mismo orden. Los nombres sin fila no
// aparecen en el resultado.
func (r *LocationRepo) GetForUpdate(names []string) ([]*entity.Location, error) {
	if len(names) == 0 {
		return nil, nil
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	query := `
		SELECT name, quantity, created_at, updated_at
		FROM locations WHERE name = ANY($1)
		ORDER BY name
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, sorted)
	if err != nil {
		return nil, fmt.Errorf("get locations for update: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.Name, &l.Quantity, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// Upsert inserta o actualiza la cantidad de una ubicación (creación perezosa incluida).
func (r *LocationRepo) Upsert(loc *entity.Location) error {
	query := `
		INSERT INTO locations (name, quantity, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (name)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query, loc.Name, loc.Quantity)
	if err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}
	return nil
}

// Create inserta una ubicación nueva. Nombre duplicado devuelve ErrDuplicate.
func (r *LocationRepo) Create(loc *entity.Location) error {
	query := `
		INSERT INTO locations (name, quantity, created_at, updated_at)
		VALUES ($1, $2, now(), now())`
	_, err := r.q.Exec(context.Background(), query, loc.Name, loc.Quantity)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// Update renombra y/o ajusta la cantidad de la ubicación identificada por name.
func (r *LocationRepo) Update(name string, loc *entity.Location) error {
	query := `
		UPDATE locations SET name = $2, quantity = $3, updated_at = now()
		WHERE name = $1`
	cmd, err := r.q.Exec(context.Background(), query, name, loc.Name, loc.Quantity)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update location: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista ubicaciones por nombre con paginación.
func (r *LocationRepo) List(limit, offset int) ([]*entity.Location, error) {
	query := `
		SELECT name, quantity, created_at, updated_at
		FROM locations ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.Name, &l.Quantity, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// Delete elimina una ubicación por nombre. Los movimientos que la referencian se
// conservan (integridad referencial lógica, no FK).
func (r *LocationRepo) Delete(name string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM locations WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}
