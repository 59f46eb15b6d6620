package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jmoreno/kardex-api/internal/domain/entity"
	"github.com/jmoreno/kardex-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación de MovementRepository sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador de movimientos. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento y asigna el ID generado.
func (r *MovementRepo) Create(m *entity.Movement) error {
	query := `
		INSERT INTO movements (reference, ts, from_location, to_location, product_id, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		m.Reference, m.Timestamp, m.FromLocation, m.ToLocation, m.ProductID, m.Quantity,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(id int64) (*entity.Movement, error) {
	query := `
		SELECT id, reference, ts, from_location, to_location, product_id, quantity
		FROM movements WHERE id = $1`
	var m entity.Movement
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&m.ID, &m.Reference, &m.Timestamp, &m.FromLocation, &m.ToLocation, &m.ProductID, &m.Quantity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &m, nil
}

// Update sobreescribe los campos mutables preservando id, reference y ts.
func (r *MovementRepo) Update(m *entity.Movement) error {
	query := `
		UPDATE movements SET from_location = $2, to_location = $3, product_id = $4, quantity = $5
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.FromLocation, m.ToLocation, m.ProductID, m.Quantity,
	)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	return nil
}

// Delete elimina un movimiento por ID.
func (r *MovementRepo) Delete(id int64) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	return nil
}

// List lista movimientos, más recientes primero.
func (r *MovementRepo) List(limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT id, reference, ts, from_location, to_location, product_id, quantity
		FROM movements ORDER BY ts DESC, id DESC LIMIT $1 OFFSET $2`
	return r.list(query, limit, offset)
}

// ListByLocation lista movimientos que tocan una ubicación como origen o destino.
func (r *MovementRepo) ListByLocation(name string, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT id, reference, ts, from_location, to_location, product_id, quantity
		FROM movements WHERE from_location = $1 OR to_location = $1
		ORDER BY ts DESC, id DESC LIMIT $2 OFFSET $3`
	return r.list(query, name, limit, offset)
}

// NetByLocation calcula la cantidad derivada de una ubicación a partir del libro:
// suma de entradas menos suma de salidas (propiedad de conciliación).
func (r *MovementRepo) NetByLocation(name string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN to_location = $1 THEN quantity ELSE 0 END), 0)
		     - COALESCE(SUM(CASE WHEN from_location = $1 THEN quantity ELSE 0 END), 0)
		FROM movements
		WHERE from_location = $1 OR to_location = $1`
	var net int64
	if err := r.q.QueryRow(context.Background(), query, name).Scan(&net); err != nil {
		return 0, fmt.Errorf("net by location: %w", err)
	}
	return net, nil
}

func (r *MovementRepo) list(query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(&m.ID, &m.Reference, &m.Timestamp, &m.FromLocation, &m.ToLocation, &m.ProductID, &m.Quantity); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
