package dto

import "time"

// CreateLocationRequest body para POST /api/locations. Quantity es el stock de
// apertura (opcional, >= 0).
type CreateLocationRequest struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// UpdateLocationRequest body para PUT /api/locations/:name (renombrar y/o ajustar).
type UpdateLocationRequest struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// LocationResponse representación HTTP de una ubicación.
type LocationResponse struct {
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationListResponse listado paginado de ubicaciones.
type LocationListResponse struct {
	Locations []LocationResponse `json:"locations"`
	Page      PageResponse       `json:"page"`
}
