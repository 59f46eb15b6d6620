package dto

// ReportResponse vista combinada del estado del sistema: todas las ubicaciones
// con sus cantidades más los movimientos recientes (la "home" del sistema).
type ReportResponse struct {
	Locations []LocationResponse `json:"locations"`
	Movements []MovementResponse `json:"movements"`
}
