package entity

import "time"

// Product representa un producto del catálogo. La cantidad no vive aquí:
// todo el stock se lleva por Location vía movimientos.
type Product struct {
	ID        int64
	Name      string // único
	CreatedAt time.Time
}
