package usecase

import (
	"time"

	"github.com/jmoreno/kardex-api/internal/application/dto"
	"github.com/jmoreno/kardex-api/internal/domain"
	"github.com/jmoreno/kardex-api/internal/domain/entity"
	"github.com/jmoreno/kardex-api/internal/domain/repository"
)

// LocationUseCase gestión explícita de ubicaciones, al margen de la creación
// perezosa del motor: alta con stock de apertura, consulta, renombrado y baja.
// La baja es la operación del colaborador externo que el motor debe tolerar
// (un movimiento puede quedar referenciando un nombre ya eliminado).
type LocationUseCase struct {
	repo repository.LocationRepository
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(repo repository.LocationRepository) *LocationUseCase {
	return &LocationUseCase{repo: repo}
}

// Create crea una ubicación con stock de apertura (>= 0).
func (uc *LocationUseCase) Create(in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	if in.Name == "" || in.Quantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	loc := &entity.Location{Name: in.Name, Quantity: in.Quantity, CreatedAt: now, UpdatedAt: now}
	if err := uc.repo.Create(loc); err != nil {
		return nil, err
	}
	return toLocationResponse(loc), nil
}

// GetByName obtiene una ubicación por nombre.
func (uc *LocationUseCase) GetByName(name string) (*dto.LocationResponse, error) {
	loc, err := uc.repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}
	return toLocationResponse(loc), nil
}

// Update renombra y/o ajusta la cantidad de una ubicación existente.
func (uc *LocationUseCase) Update(name string, in dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	if in.Name == "" || in.Quantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	loc, err := uc.repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}
	loc.Name = in.Name
	loc.Quantity = in.Quantity
	loc.UpdatedAt = time.Now()
	if err := uc.repo.Update(name, loc); err != nil {
		return nil, err
	}
	return toLocationResponse(loc), nil
}

// List lista ubicaciones con paginación.
func (uc *LocationUseCase) List(limit, offset int) (*dto.LocationListResponse, error) {
	locs, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := &dto.LocationListResponse{
		Locations: make([]dto.LocationResponse, 0, len(locs)),
		Page:      dto.PageResponse{Limit: limit, Offset: offset, Total: len(locs)},
	}
	for _, l := range locs {
		out.Locations = append(out.Locations, *toLocationResponse(l))
	}
	return out, nil
}

// Delete elimina una ubicación por nombre. Los movimientos que la referencian
// se conservan; la integridad referencial es lógica, no una FK dura.
func (uc *LocationUseCase) Delete(name string) error {
	loc, err := uc.repo.GetByName(name)
	if err != nil {
		return err
	}
	if loc == nil {
		return domain.ErrNotFound
	}
	return uc.repo.Delete(name)
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	return &dto.LocationResponse{Name: l.Name, Quantity: l.Quantity, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt}
}
