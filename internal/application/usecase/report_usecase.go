package usecase

import (
	"github.com/jmoreno/kardex-api/internal/application/dto"
	"github.com/jmoreno/kardex-api/internal/domain/repository"
)

// ReportUseCase arma la vista combinada del sistema: todas las ubicaciones con
// sus cantidades más los movimientos recientes.
type ReportUseCase struct {
	locRepo repository.LocationRepository
	movRepo repository.MovementRepository
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(locRepo repository.LocationRepository, movRepo repository.MovementRepository) *ReportUseCase {
	return &ReportUseCase{locRepo: locRepo, movRepo: movRepo}
}

// Generate devuelve hasta limit ubicaciones y movimientos recientes.
func (uc *ReportUseCase) Generate(limit int) (*dto.ReportResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	locs, err := uc.locRepo.List(limit, 0)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movRepo.List(limit, 0)
	if err != nil {
		return nil, err
	}
	out := &dto.ReportResponse{
		Locations: make([]dto.LocationResponse, 0, len(locs)),
		Movements: make([]dto.MovementResponse, 0, len(movs)),
	}
	for _, l := range locs {
		out.Locations = append(out.Locations, *toLocationResponse(l))
	}
	for _, m := range movs {
		out.Movements = append(out.Movements, dto.MovementResponse{
			ID:           m.ID,
			Reference:    m.Reference,
			Timestamp:    m.Timestamp,
			FromLocation: m.FromLocation,
			ToLocation:   m.ToLocation,
			ProductID:    m.ProductID,
			Quantity:     m.Quantity,
		})
	}
	return out, nil
}
