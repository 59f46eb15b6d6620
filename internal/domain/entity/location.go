package entity

import "time"

// Location representa un punto de almacenamiento con una cantidad de stock no negativa.
// El nombre es la identidad; se crea de forma perezosa cuando un movimiento la nombra
// como destino y nunca se elimina automáticamente al llegar a cero.
type Location struct {
	Name      string
	Quantity  int64 // invariante: >= 0 tras cada operación confirmada
	CreatedAt time.Time
	UpdatedAt time.Time
}
