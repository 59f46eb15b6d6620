package repository

import "github.com/jmoreno/kardex-api/internal/domain/entity"

// MovementRepository define el puerto de persistencia para Movement (DIP).
type MovementRepository interface {
	Create(m *entity.Movement) error
	GetByID(id int64) (*entity.Movement, error)
	// Update sobreescribe los campos mutables (origen, destino, producto,
	// cantidad) preservando identidad, referencia y timestamp.
	Update(m *entity.Movement) error
	Delete(id int64) error
	List(limit, offset int) ([]*entity.Movement, error)
	ListByLocation(name string, limit, offset int) ([]*entity.Movement, error)
	// NetByLocation suma de cantidades con la ubicación como destino menos la
	// suma con la ubicación como origen: la propiedad de conciliación derivada.
	NetByLocation(name string) (int64, error)
}
