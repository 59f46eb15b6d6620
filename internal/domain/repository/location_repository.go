package repository

import "github.com/jmoreno/kardex-api/internal/domain/entity"

// LocationRepository define el puerto de persistencia para Location (DIP).
// La identidad es el nombre. Usado dentro de transacciones para garantizar
// consistencia de cantidades.
type LocationRepository interface {
	GetByName(name string) (*entity.Location, error)
	// GetForUpdate obtiene las ubicaciones existentes entre names y bloquea sus
	// filas (SELECT FOR UPDATE) en orden de nombre para evitar deadlocks.
	// Los nombres sin fila simplemente no aparecen en el resultado.
	GetForUpdate(names []string) ([]*entity.Location, error)
	// Upsert inserta o actualiza la cantidad de una ubicación (creación perezosa incluida).
	Upsert(loc *entity.Location) error
	Create(loc *entity.Location) error
	Update(name string, loc *entity.Location) error
	List(limit, offset int) ([]*entity.Location, error)
	Delete(name string) error
}
