package dto

import "time"

// MovementRequest body para POST /api/movements y PUT /api/movements/:id.
// from_location nil = entrada externa; to_location nil = salida externa.
type MovementRequest struct {
	FromLocation *string `json:"from_location,omitempty"`
	ToLocation   *string `json:"to_location,omitempty"`
	ProductID    int64   `json:"product_id"`
	Quantity     int64   `json:"quantity"`
}

// MovementResponse representación HTTP de un movimiento.
type MovementResponse struct {
	ID           int64     `json:"id"`
	Reference    string    `json:"reference"`
	Timestamp    time.Time `json:"timestamp"`
	FromLocation *string   `json:"from_location,omitempty"`
	ToLocation   *string   `json:"to_location,omitempty"`
	ProductID    int64     `json:"product_id"`
	Quantity     int64     `json:"quantity"`
}

// MovementListResponse listado paginado de movimientos.
type MovementListResponse struct {
	Movements []MovementResponse `json:"movements"`
	Page      PageResponse       `json:"page"`
}
