package entity

import "time"

// Movement representa un traslado registrado de una cantidad de un producto
// entre como máximo dos ubicaciones. FromLocation nil significa entrada externa
// (el stock aparece); ToLocation nil significa salida externa (el stock sale del
// sistema). Ambos nil es inválido.
//
// Un movimiento se corrige en el sitio (amend) o se elimina revirtiendo su
// efecto neto; la identidad, el timestamp y la referencia se preservan al corregir.
type Movement struct {
	ID           int64
	Reference    string // UUID de agrupación, asignado al crear
	Timestamp    time.Time
	FromLocation *string
	ToLocation   *string
	ProductID    int64
	Quantity     int64 // invariante: > 0
}

// HasFrom indica si el movimiento tiene ubicación de origen.
func (m *Movement) HasFrom() bool { return m.FromLocation != nil && *m.FromLocation != "" }

// HasTo indica si el movimiento tiene ubicación de destino.
func (m *Movement) HasTo() bool { return m.ToLocation != nil && *m.ToLocation != "" }
