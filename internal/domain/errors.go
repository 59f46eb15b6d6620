package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrConflict: la contención concurrente no pudo resolverse dentro del
	// presupuesto de reintentos. El caller puede reintentar la operación completa.
	ErrConflict = errors.New("conflicto con el estado actual")
)
